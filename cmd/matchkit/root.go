package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funvibe/matchkit/internal/config"
)

// app is shared by all subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger

	logLevel string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: slog.Default()}

	root := &cobra.Command{
		Use:           "matchkit",
		Short:         "Pattern matching and classification engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(envDefault(a.logLevel, config.EnvLogLevel))
			if err != nil {
				return withCode(exitUsage, err)
			}
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")

	root.AddCommand(
		a.classifyCmd(),
		a.checkCmd(),
		a.serveCmd(),
		a.historyCmd(),
		a.demoCmd(),
		a.queryCmd(),
	)
	return root
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// envDefault returns flag when set, otherwise the environment variable.
func envDefault(flag, env string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(env)
}

func requireFlag(value, name, env string) (string, error) {
	v := envDefault(value, env)
	if v == "" {
		return "", withCode(exitUsage, fmt.Errorf("--%s is required (or set %s)", name, env))
	}
	return v, nil
}
