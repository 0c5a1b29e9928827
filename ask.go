package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaot623/chatbridge/internal/domain"
)

// bridgeClient posts messages to a running bridge and remembers the thread.
type bridgeClient struct {
	addr     string
	threadID string
	http     *http.Client
}

func (c *bridgeClient) send(message string) (string, error) {
	payload, err := json.Marshal(domain.ChatRequest{Message: message, ThreadID: c.threadID})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(strings.TrimSuffix(c.addr, "/")+"/api/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Error) == 0 {
			return "", fmt.Errorf("bridge returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("bridge returned %d: %s", resp.StatusCode, string(errResp.Error))
	}

	var chat domain.ChatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	c.threadID = chat.ThreadID
	return chat.Response, nil
}

func askCommand() *cobra.Command {
	var (
		addr     string
		threadID string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send messages to a running bridge",
		Long:  "Send one message given as arguments, or start an interactive session when none is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			client := &bridgeClient{
				addr:     addr,
				threadID: threadID,
				http:     &http.Client{Timeout: timeout},
			}

			if len(args) > 0 {
				reply, err := client.send(strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply)
				fmt.Fprintf(cmd.ErrOrStderr(), "thread: %s\n", client.threadID)
				return nil
			}
			return interactive(cmd, client)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "Bridge address")
	cmd.Flags().StringVar(&threadID, "thread", "", "Continue an existing thread")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Request timeout")
	return cmd
}

func interactive(cmd *cobra.Command, client *bridgeClient) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Type a message and press Enter to send.")
	fmt.Fprintln(out, "Commands: /quit to exit, /new to start a new thread")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "/new":
			client.threadID = ""
			fmt.Fprintln(out, "Started a new thread.")
			continue
		}

		reply, err := client.send(input)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Send error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\n%s\n\n", reply)
	}
}
