package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metorial/script-admin/internal/models"
)

func TestStatusBadge(t *testing.T) {
	tests := []struct {
		name  string
		out   models.ScriptOutput
		kind  string
		label string
	}{
		{"running", models.ScriptOutput{IsRunning: true}, BadgeRunning, "Running..."},
		{"success", models.ScriptOutput{ExitCode: models.IntPtr(0)}, BadgeSuccess, "Success"},
		{"error", models.ScriptOutput{ExitCode: models.IntPtr(2)}, BadgeError, "Error (Code: 2)"},
		{"running wins", models.ScriptOutput{IsRunning: true, ExitCode: models.IntPtr(1)}, BadgeRunning, "Running..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := StatusBadge(tt.out)
			require.Equal(t, tt.kind, b.Kind)
			require.Equal(t, tt.label, b.Label)
		})
	}
}

func TestDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2*time.Second + 345*time.Millisecond)

	require.Equal(t, "2.35", Duration(models.ScriptOutput{StartTime: &start, EndTime: &end}))
	require.Equal(t, "N/A", Duration(models.ScriptOutput{StartTime: &start}))
	require.Equal(t, "N/A", Duration(models.ScriptOutput{}))
}

func TestFormatTime(t *testing.T) {
	require.Equal(t, "N/A", FormatTime(nil))

	ts := time.Date(2024, 1, 1, 13, 4, 5, 0, time.Local)
	require.Equal(t, "13:04:05", FormatTime(&ts))
}

func TestNewOutputView(t *testing.T) {
	empty := NewOutputView(nil, "")
	require.True(t, empty.Empty)
	require.Equal(t, "Output", empty.Title)

	start := time.Now()
	end := start.Add(time.Second)
	ov := NewOutputView(&models.ScriptOutput{
		Stdout:    "hello",
		ExitCode:  models.IntPtr(0),
		StartTime: &start,
		EndTime:   &end,
	}, "Hello World")

	require.False(t, ov.Empty)
	require.Equal(t, "Output: Hello World", ov.Title)
	require.Equal(t, BadgeSuccess, ov.Badge.Kind)
	require.Equal(t, "1.00", ov.Duration)
	require.Equal(t, "hello", ov.Stdout)
	require.Empty(t, ov.Stderr)
}
