package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/metorial/script-admin/internal/logging"
	"github.com/metorial/script-admin/internal/models"
)

const DefaultMockDelay = 2 * time.Second

// MockService simulates the backend. Runs always succeed after Delay and
// save/delete echo their input.
type MockService struct {
	Delay time.Duration
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewMockService(delay time.Duration, log *zap.SugaredLogger) *MockService {
	if log == nil {
		log = logging.Nop()
	}
	return &MockService{Delay: delay, log: log, now: time.Now}
}

func (m *MockService) Run(ctx context.Context, script models.Script) (models.ScriptOutput, error) {
	m.log.Infow("running script", "script_id", script.ID, "name", script.Name, "command", script.Command)

	timer := time.NewTimer(m.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return models.ScriptOutput{}, ctx.Err()
	case <-timer.C:
	}

	end := m.now()
	start := end.Add(-m.Delay)

	return models.ScriptOutput{
		Stdout:    fmt.Sprintf("Sample output for: %s\nCommand: %s\n\nThis is simulated output in development mode.", script.Name, script.Command),
		Stderr:    "",
		ExitCode:  models.IntPtr(0),
		IsRunning: false,
		StartTime: &start,
		EndTime:   &end,
	}, nil
}

func (m *MockService) Save(ctx context.Context, script models.Script) (models.Script, error) {
	m.log.Infow("saving script", "script_id", script.ID, "name", script.Name)
	return script, nil
}

func (m *MockService) Delete(ctx context.Context, scriptID string) (bool, error) {
	m.log.Infow("deleting script", "script_id", scriptID)
	return true, nil
}
