package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/replikanti/flowlint-tools/internal/config"
	"github.com/replikanti/flowlint-tools/internal/github"
	"github.com/replikanti/flowlint-tools/internal/logging"
	"github.com/replikanti/flowlint-tools/internal/support"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the support ticket server",
	Long: `Run the HTTP server that accepts support form submissions.

In "issues" mode (the default) each valid ticket is routed to the matching
GitHub repository and confirmed only once the issue exists. In "intake"
mode tickets are acknowledged immediately and then stored locally and
forwarded by email on a best-effort basis. The mode is fixed per
deployment via SUPPORT_MODE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Support.Addr = addr
		}

		handler, err := buildSupportHandler(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/", handler)
		mux.Handle("/support", handler)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})

		server := &http.Server{
			Addr:              cfg.Support.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logging.Info("support server listening",
				"addr", cfg.Support.Addr,
				"mode", cfg.Support.Mode)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("support server failed: %w", err)
		case sig := <-stop:
			logging.Info("shutting down", "signal", sig.String())
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

// buildSupportHandler assembles the handler for the configured delivery
// discipline. Exactly one discipline is mounted per deployment.
func buildSupportHandler(ctx context.Context, cfg *config.Config) (http.Handler, error) {
	switch cfg.Support.Mode {
	case "issues":
		if err := config.ValidateGitHubConfig(cfg); err != nil {
			return nil, err
		}

		client, err := github.NewClient(cfg.GitHub)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GitHub client: %w", err)
		}
		if err := client.CheckAuth(ctx); err != nil {
			return nil, err
		}

		return support.NewHandler(support.DefaultConfig(), client), nil

	case "intake":
		store := support.NewFileStore(cfg.Support.StorePath)

		var mailer support.Mailer
		if cfg.Support.SendGridAPIKey != "" && cfg.Support.SupportEmail != "" {
			mailer = support.NewSendGridMailer(
				cfg.Support.SendGridAPIKey,
				cfg.Support.SupportEmail,
				cfg.Support.FromEmail,
			)
		} else {
			logging.Warn("sendgrid not configured, intake mode will only store tickets")
		}

		return support.NewIntakeHandler(store, mailer), nil

	default:
		return nil, fmt.Errorf("unknown support mode: %q", cfg.Support.Mode)
	}
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides SUPPORT_ADDR)")
}
