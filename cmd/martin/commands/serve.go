package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/martinhq/martin/pkg/martin/reminders"
	"github.com/martinhq/martin/pkg/martin/server"
)

// newServeCmd creates the `martin serve` command that starts the daemon.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the Martin backend: the Mini-App HTTP API, the OAuth connect
flow, and the reminder scheduler.

Examples:
  martin serve
  martin serve --addr :8080`,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides MARTIN_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	srv := server.New(server.Config{
		Addr:      addr,
		Assistant: a.assistant,
		Env:       a.env,
		Reminders: a.reminders,
		Google:    a.google,
		Yandex:    a.yandex,
		Logger:    a.logger,
	})

	scheduler := reminders.NewScheduler(a.reminders, nil, a.logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("starting reminder scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		scheduler.Stop()
		return err
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, stopping", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown failed", "error", err)
	}
	scheduler.Stop()
	a.logger.Info("stopped")
	return nil
}
