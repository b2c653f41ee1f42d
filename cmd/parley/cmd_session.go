package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/parley/internal/history"
	"github.com/user/parley/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionClearCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store := history.NewStore(cfg.DataDir)

		list, err := store.List(context.Background())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKEY\tMODEL\tSTATUS\tMESSAGES\tCREATED")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				s.SessionID,
				s.SessionKey,
				s.Model,
				s.Status,
				s.MessageCount,
				s.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store := history.NewStore(cfg.DataDir)

		conv, err := store.Messages(context.Background(), types.SessionID(args[0]))
		if err != nil {
			return fmt.Errorf("load transcript: %w", err)
		}
		if conv.Len() == 0 {
			fmt.Println("Transcript is empty.")
			return nil
		}

		for _, msg := range conv.All() {
			switch {
			case len(msg.ToolCalls) > 0:
				for _, call := range msg.ToolCalls {
					fmt.Printf("[%s] -> %s(%s)\n", msg.Role, call.Name, string(call.Arguments))
				}
			case msg.ToolCallID != "":
				fmt.Printf("[%s %s] %s\n", msg.Role, msg.ToolCallID, msg.Content)
			default:
				fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
			}
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <id|all>",
	Short: "Clear a session or all sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store := history.NewStore(cfg.DataDir)
		ctx := context.Background()

		if args[0] == "all" {
			if err := os.RemoveAll(filepath.Join(cfg.DataDir, "sessions")); err != nil {
				return fmt.Errorf("remove sessions directory: %w", err)
			}
			fmt.Println("All sessions cleared.")
			return nil
		}

		list, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		for _, s := range list {
			if string(s.SessionID) == args[0] {
				if err := store.Delete(ctx, s.SessionKey); err != nil {
					return fmt.Errorf("delete session: %w", err)
				}
				fmt.Fprintf(os.Stdout, "Session %s cleared.\n", args[0])
				return nil
			}
		}
		return fmt.Errorf("session not found: %s", args[0])
	},
}
