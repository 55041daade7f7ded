// Package format invokes an external formatter binary (forge fmt by
// default) over preprocessed output. Grounded on the Python original's
// format_with_forge: a missing binary, a non-zero exit, or a timeout are
// all warnings, never fatal to the overall run.
package format

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/MadAppGang/yulimport/pkg/config"
)

// Warning describes a non-fatal formatter problem.
type Warning struct {
	Path    string
	Message string
}

// Run invokes cfg.Format.Binary with cfg.Format.Args plus path, bounded by
// cfg.Format.TimeoutSeconds. It returns a *Warning (never an error) for
// every way formatting can fail to complete cleanly; a nil return means
// formatting succeeded or was disabled.
func Run(cfg *config.Config, path string, logger *zap.SugaredLogger) *Warning {
	if !cfg.Format.Enabled {
		return nil
	}

	if _, err := exec.LookPath(cfg.Format.Binary); err != nil {
		logDebug(logger, "formatter binary not found", path, err)
		return &Warning{Path: path, Message: fmt.Sprintf("formatter %q not found on PATH, skipping", cfg.Format.Binary)}
	}

	timeout := time.Duration(cfg.Format.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := append(append([]string{}, cfg.Format.Args...), path)
	cmd := exec.CommandContext(ctx, cfg.Format.Binary, args...)
	output, err := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		logDebug(logger, "formatter timed out", path, ctx.Err())
		return &Warning{Path: path, Message: fmt.Sprintf("formatter timed out after %s", timeout)}
	}
	if err != nil {
		logDebug(logger, "formatter exited non-zero", path, err)
		return &Warning{Path: path, Message: fmt.Sprintf("formatter failed: %v\n%s", err, output)}
	}

	return nil
}

func logDebug(logger *zap.SugaredLogger, msg, path string, err error) {
	if logger == nil {
		return
	}
	logger.Debugw(msg, "path", path, "error", err)
}
