// Package service defines the execution and persistence boundary used by
// the controller, with a mocked implementation for development and a real
// process runner.
package service

import (
	"context"

	"github.com/metorial/script-admin/internal/models"
)

type Runner interface {
	Run(ctx context.Context, script models.Script) (models.ScriptOutput, error)
}

type Persister interface {
	Save(ctx context.Context, script models.Script) (models.Script, error)
	Delete(ctx context.Context, scriptID string) (bool, error)
}

// ExecutionRecorder is implemented by persisters that keep run history.
type ExecutionRecorder interface {
	RecordExecution(ctx context.Context, exec models.ScriptExecution) error
}

// Loader is implemented by persisters that can return previously saved scripts.
type Loader interface {
	LoadScripts(ctx context.Context) ([]models.Script, error)
}
