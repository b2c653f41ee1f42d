package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/parley/internal/toolkit"
	"github.com/user/parley/internal/toolkit/tools"
	"github.com/user/parley/pkg/llm"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("no-tools", false, "disable tool calling")
	chatCmd.Flags().String("system", "", "system prompt override")
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the model from the terminal",
	Long: `Chat with the configured model. With a message argument, sends it and
prints the reply. Without arguments, starts an interactive session; exit
with Ctrl-D or /quit.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	noTools, _ := cmd.Flags().GetBool("no-tools")
	var registry *toolkit.Registry
	if !noTools {
		registry = toolkit.NewRegistry()
		registry.Register(tools.NewReadURL())
		registry.Register(tools.NewClock())
	}

	conv, err := llm.NewMessageCollection()
	if err != nil {
		return err
	}
	if system, _ := cmd.Flags().GetString("system"); system != "" {
		conv.AppendSystem(system)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) > 0 {
		conv.AppendUser(strings.Join(args, " "))
		reply, err := completeTurn(ctx, client, registry, conv, cfg.MaxToolRounds)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	fmt.Printf("Chatting with %s. Ctrl-D or /quit to exit.\n", cfg.LLM.Model)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		conv.AppendUser(line)
		reply, err := completeTurn(ctx, client, registry, conv, cfg.MaxToolRounds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
}

// completeTurn drives one user turn to a final assistant reply, executing
// tool calls in between. The reply is appended to conv before returning.
func completeTurn(ctx context.Context, client *llm.Client, registry *toolkit.Registry, conv *llm.MessageCollection, maxRounds int) (string, error) {
	if registry == nil {
		resp, err := client.Complete(ctx, conv)
		if err != nil {
			return "", err
		}
		conv.AppendAssistant(resp.Content)
		return resp.Content, nil
	}

	defs, err := registry.Definitions()
	if err != nil {
		return "", err
	}
	if maxRounds <= 0 {
		maxRounds = 10
	}

	for round := 0; round < maxRounds; round++ {
		resp, err := client.WithTools(defs...).Complete(ctx, conv)
		if err != nil {
			return "", err
		}
		if !resp.HasToolCalls() {
			conv.AppendAssistant(resp.Content)
			return resp.Content, nil
		}
		if err := toolkit.ExecuteBatch(ctx, registry, conv, resp); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no final response after %d tool rounds", maxRounds)
}
