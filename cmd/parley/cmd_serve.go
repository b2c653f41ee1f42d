package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/parley/internal/budget"
	"github.com/user/parley/internal/delivery"
	"github.com/user/parley/internal/gateway"
	"github.com/user/parley/internal/history"
	"github.com/user/parley/internal/runner"
	"github.com/user/parley/internal/scheduler"
	"github.com/user/parley/internal/telegram"
	"github.com/user/parley/internal/toolkit"
	"github.com/user/parley/internal/toolkit/tools"
	"github.com/user/parley/internal/types"
	"github.com/user/parley/internal/webhook"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the parley daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "parley.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Write PID file
	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	// Stores
	store := history.NewStore(cfg.DataDir)
	taskStore := history.NewTaskStore(filepath.Join(cfg.DataDir, "tasks.json"))

	// LLM client
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	// Context trimmer
	trimmer, err := budget.New(client.Model(), cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return fmt.Errorf("create trimmer: %w", err)
	}

	// Tool registry
	registry := toolkit.NewRegistry()
	registry.Register(tools.NewReadURL())
	registry.Register(tools.NewClock())

	// Runner
	run := runner.New(client, trimmer, store, store, registry, cfg.MaxToolRounds)

	// Gateway
	gw := gateway.New(store, cfg.LLM.Model, int64(cfg.MaxConcurrent))
	gw.Queue.SetProcessor(run.ProcessTurn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw.Start(ctx)
	defer gw.Stop()

	slog.Info("parley started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"max_tool_rounds", cfg.MaxToolRounds,
		"llm_model", cfg.LLM.Model,
		"pid_file", pidPath,
	)

	// Delivery registry
	deliveryReg := delivery.NewRegistry()

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, gw, store, store, cfg.LLM.Model)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")

		// Register telegram delivery for cron responses
		deliveryReg.Register("telegram:", func(sessionKey, message string) error {
			return adapter.SendTo(sessionKey, message)
		})
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// Helper: synchronously process a task through the gateway and return
	// the response.
	processTask := func(sessionKey, prompt string) (string, error) {
		done := make(chan string, 1)
		inbound := &types.InboundTurn{
			Source:     "task",
			SessionKey: types.SessionKey(sessionKey),
			UserID:     "system",
			Text:       prompt,
		}
		if err := gw.HandleInbound(ctx, inbound, gateway.WithOnComplete(func(response string) {
			done <- response
		})); err != nil {
			return "", err
		}
		return <-done, nil
	}

	// Scheduler
	sched := scheduler.New(taskStore, func(sessionKey, prompt string) {
		response, err := processTask(sessionKey, prompt)
		if err != nil {
			slog.Error("cron task failed", "session_key", sessionKey, "error", err)
			return
		}
		if response == "" {
			return
		}
		if err := deliveryReg.Deliver(sessionKey, response); err != nil {
			slog.Error("cron delivery failed", "session_key", sessionKey, "error", err)
		}
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	slog.Info("scheduler started")

	// Webhook HTTP server
	if cfg.HTTP.Enabled {
		webhookSrv := webhook.NewServer(taskStore, processTask, store, store)
		httpServer := &http.Server{
			Addr:    cfg.HTTP.Listen,
			Handler: webhookSrv,
		}
		go func() {
			slog.Info("webhook server started", "listen", cfg.HTTP.Listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("webhook server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				// Re-write PID file since we failed to re-exec
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		// SIGINT or SIGTERM
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
