package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/metorial/script-admin/internal/logging"
	"github.com/metorial/script-admin/internal/models"
)

// ExecRunner runs the script command through a shell on the local host.
type ExecRunner struct {
	shell   string
	timeout time.Duration
	dir     string
	log     *zap.SugaredLogger
}

func NewExecRunner(shell string, timeout time.Duration, log *zap.SugaredLogger) *ExecRunner {
	if shell == "" {
		shell = "/bin/bash"
	}
	if log == nil {
		log = logging.Nop()
	}
	return &ExecRunner{shell: shell, timeout: timeout, log: log}
}

// WithDir sets the working directory commands are started in.
func (r *ExecRunner) WithDir(dir string) *ExecRunner {
	r.dir = dir
	return r
}

// Run returns an error only when the command could not be started or was
// cancelled. A non-zero exit status is reported through ExitCode.
func (r *ExecRunner) Run(ctx context.Context, script models.Script) (models.ScriptOutput, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.shell, "-c", script.Command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = r.dir

	start := time.Now()
	exitCode := 0

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.ScriptOutput{}, fmt.Errorf("execute script: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return models.ScriptOutput{}, fmt.Errorf("execute script: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}
	end := time.Now()

	r.log.Infow("script finished", "script_id", script.ID, "exit_code", exitCode, "duration", end.Sub(start))

	return models.ScriptOutput{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  models.IntPtr(exitCode),
		IsRunning: false,
		StartTime: &start,
		EndTime:   &end,
	}, nil
}
