package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/bootstrap"
)

const (
	defaultCommandTimeout   = 2 * time.Minute
	defaultMigrationTimeout = 5 * time.Minute
)

// commandContext carries what every subcommand needs once the root command
// has loaded configuration.
type commandContext struct {
	Logger     *slog.Logger
	Config     config.AppConfig
	loadConfig func() (config.AppConfig, error)
}

func main() {
	logger := bootstrap.InitLogger()
	cmdCtx := &commandContext{Logger: logger, loadConfig: bootstrap.LoadConfig}

	if err := newRootCmd(cmdCtx).ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
