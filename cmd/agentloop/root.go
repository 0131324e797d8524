package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/config"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "cmd")

var rootCmd = &cobra.Command{
	Use:          "agentloop",
	Short:        "agentloop is a tool calling assistant for CRM data",
	Long:         `agentloop talks to an OpenAI compatible completion endpoint and lets the model call CRM tools backed by PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		return setupLogging(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "error", "Log level: debug, info, notice, warning, error")
	rootCmd.PersistentFlags().String("syntax", "", "Tool call syntax taught to the model: json or key_value, overrides the configuration")
}

func setupLogging(level string) error {
	var l xlog.LogLevel
	switch strings.ToLower(level) {
	case "debug":
		l = xlog.DEBUG
	case "info":
		l = xlog.INFO
	case "notice":
		l = xlog.NOTICE
	case "warning", "warn":
		l = xlog.WARNING
	case "error", "":
		l = xlog.ERROR
	default:
		return errors.Errorf("unsupported log level: %s", level)
	}
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	xlog.SetGlobalLogLevel(l)
	return nil
}

// app is the assistant dependencies created from the configuration.
type app struct {
	cfg      *config.Config
	llm      llms.Model
	registry *tools.Registry
	closer   func()
}

func loadApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}

	if syntax, _ := cmd.Flags().GetString("syntax"); syntax != "" {
		cfg.Agent.Syntax = syntax
		if err = cfg.Validate(); err != nil {
			return nil, err
		}
	}

	model, err := config.NewLLM(&cfg.LLM)
	if err != nil {
		return nil, err
	}

	registry, repo, err := cfg.Registry(ctx)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		llm:      model,
		registry: registry,
		closer:   func() {},
	}
	if c, ok := repo.(interface{ Close() }); ok {
		a.closer = c.Close
	}

	logger.KV(xlog.INFO,
		"status", "loaded",
		"endpoint", cfg.LLM.Endpoint,
		"model", cfg.LLM.Model,
		"tools", registry.Names(),
	)
	return a, nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
