// Package cmdutil holds the flag and config plumbing shared by the grph commands.
package cmdutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/conokit/internal/config"
	"github.com/klytics/conokit/internal/logging"
	"github.com/klytics/conokit/internal/output"
)

// JSON reports whether --json was given.
func JSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// LoadConfig loads --config, or the default locations, and rejects a config with errors.
// Both failures exit with the user-error code.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, output.WithCode(output.ExitUserError, err)
	}
	for _, issue := range config.Validate(cfg) {
		if issue.Severity == "error" {
			return nil, output.WithCode(output.ExitUserError,
				fmt.Errorf("invalid config (%s): %s — run 'grph config validate'", issue.Key, issue.Message))
		}
	}
	return cfg, nil
}

// Logger builds the zap logger from LOG_LEVEL, LOG_FORMAT and --verbose.
func Logger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := logging.New(logging.ConfigFromEnv(verbose))
	if err != nil {
		return nil, output.WithCode(output.ExitUserError, err)
	}
	return logger, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
