package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/server"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the assistant HTTP API: chat sessions, direct CRM tool endpoints, health and metrics.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		idle, _ := cmd.Flags().GetDuration("session-idle")

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := loadApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.closer()

		srv, err := server.New(a.llm, a.registry,
			server.WithAssistantOptions(a.cfg.AssistantOptions()...),
			server.WithLLMEndpoint(a.cfg.LLM.Endpoint),
			server.WithCallback(assistants.NewPackageLoggerCallback(logger)),
		)
		if err != nil {
			return err
		}
		if idle > 0 {
			go srv.RunEviction(ctx, idle)
		}

		httpServer := &http.Server{
			Addr:              values.StringsCoalesce(listen, a.cfg.Server.Listen),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.KV(xlog.NOTICE, "status", "listening", "addr", httpServer.Addr)
			printf(cmd, "Starting server on %s\n", httpServer.Addr)
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return errors.WithMessage(err, "server error")

		case sig := <-shutdown:
			logger.KV(xlog.NOTICE, "status", "shutting_down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()

			if err := httpServer.Shutdown(sctx); err != nil {
				logger.KV(xlog.ERROR, "status", "shutdown_incomplete", "err", err.Error())
				if err := httpServer.Close(); err != nil {
					return errors.WithMessage(err, "failed to close server")
				}
			}
			printf(cmd, "Server stopped gracefully\n")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on, overrides the configuration")
	serveCmd.Flags().Duration("session-idle", time.Hour, "Remove chat sessions idle for longer than this, 0 to keep them")
}
