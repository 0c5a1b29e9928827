// Package domain defines the core domain models for the chat bridge.
package domain

import (
	openai "github.com/sashabaranov/go-openai"
)

// RunStatus is the lifecycle state of a remote run. The remote service owns
// every transition; the bridge only reads it.
type RunStatus = openai.RunStatus

const (
	RunStatusQueued         = openai.RunStatusQueued
	RunStatusInProgress     = openai.RunStatusInProgress
	RunStatusRequiresAction = openai.RunStatusRequiresAction
	RunStatusCancelling     = openai.RunStatusCancelling
	RunStatusCompleted      = openai.RunStatusCompleted
	RunStatusFailed         = openai.RunStatusFailed
	RunStatusCancelled      = openai.RunStatusCancelled
	RunStatusExpired        = openai.RunStatusExpired
)

// Message roles.
const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Decision is what the poller does after observing a run status.
type Decision int

const (
	DecisionContinue Decision = iota
	DecisionSuccess
	DecisionUnsupported
	DecisionFailure
)

func (d Decision) String() string {
	switch d {
	case DecisionContinue:
		return "continue"
	case DecisionSuccess:
		return "success"
	case DecisionUnsupported:
		return "unsupported"
	default:
		return "failure"
	}
}

// Decide maps a remote run status to a poller decision. Unknown statuses are
// terminal failures.
func Decide(status RunStatus) Decision {
	switch status {
	case RunStatusQueued, RunStatusInProgress:
		return DecisionContinue
	case RunStatusCompleted:
		return DecisionSuccess
	case RunStatusRequiresAction:
		return DecisionUnsupported
	default:
		return DecisionFailure
	}
}

// Outcome classifies how a chat exchange ended.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeNoReply           Outcome = "no_reply"
	OutcomeInvalidInput      Outcome = "invalid_input"
	OutcomePolicyBlocked     Outcome = "policy_blocked"
	OutcomeUpstream          Outcome = "upstream_error"
	OutcomeRunFailed         Outcome = "run_failed"
	OutcomeUnsupportedAction Outcome = "unsupported_action"
	OutcomeTimeout           Outcome = "timeout"
	OutcomeInternal          Outcome = "internal_error"
)
