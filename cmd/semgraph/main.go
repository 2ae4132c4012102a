// Package main provides the semgraph binary entry point.
// Semgraph extracts a weighted code knowledge graph from a repository and
// exports, publishes or stores it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/semgraph/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semgraph"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	repoPath   string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Code knowledge graph extractor",
		Long: `Semgraph parses a repository with per-language extractors, scores every
relation along structural, functional, centrality and depth dimensions, and
writes the resulting weighted graph.

Supported languages: python, javascript/typescript, rust, c, bash, php, vue.

The graph can be exported as JSON, YAML or N-Triples, published to NATS
JetStream, and saved as a snapshot in badger or a JetStream KV bucket.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.repoPath, "repo", "", "Repository path (default: git root or current directory)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		indexCmd(&g),
		parseCmd(&g),
		languagesCmd(&g),
		snapshotsCmd(&g),
		configCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// setupLogger configures the default logger on stderr.
func setupLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// setup builds the logger and the layered configuration for a command.
func (g *globalFlags) setup() (*config.Config, *slog.Logger, error) {
	logger := setupLogger(g.logLevel)

	cfg, err := config.NewLoader(logger).LoadWith(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if g.repoPath != "" {
		cfg.Repo.Path = g.repoPath
	}
	absRepoPath, err := filepath.Abs(cfg.Repo.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve repo path: %w", err)
	}
	info, err := os.Stat(absRepoPath)
	if err != nil {
		return nil, nil, fmt.Errorf("stat repo path: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %s", absRepoPath)
	}
	cfg.Repo.Path = absRepoPath

	return cfg, logger, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
