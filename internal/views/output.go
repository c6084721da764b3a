package views

import (
	"fmt"
	"time"

	"github.com/metorial/script-admin/internal/models"
)

const notAvailable = "N/A"

const (
	BadgeRunning = "running"
	BadgeSuccess = "success"
	BadgeError   = "error"
)

type Badge struct {
	Kind  string
	Label string
}

func StatusBadge(out models.ScriptOutput) Badge {
	switch {
	case out.IsRunning:
		return Badge{Kind: BadgeRunning, Label: "Running..."}
	case out.ExitCode != nil && *out.ExitCode == 0:
		return Badge{Kind: BadgeSuccess, Label: "Success"}
	default:
		code := "unknown"
		if out.ExitCode != nil {
			code = fmt.Sprint(*out.ExitCode)
		}
		return Badge{Kind: BadgeError, Label: fmt.Sprintf("Error (Code: %s)", code)}
	}
}

// Duration is the elapsed run time in seconds with two decimals.
func Duration(out models.ScriptOutput) string {
	if out.StartTime == nil || out.EndTime == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", out.EndTime.Sub(*out.StartTime).Seconds())
}

func FormatTime(t *time.Time) string {
	if t == nil {
		return notAvailable
	}
	return t.Local().Format("15:04:05")
}

type OutputView struct {
	Empty    bool
	Title    string
	Badge    Badge
	Start    string
	End      string
	Duration string
	Stdout   string
	Stderr   string
}

func NewOutputView(out *models.ScriptOutput, scriptName string) OutputView {
	title := "Output"
	if scriptName != "" {
		title = "Output: " + scriptName
	}

	if out == nil {
		return OutputView{Empty: true, Title: "Output"}
	}

	return OutputView{
		Title:    title,
		Badge:    StatusBadge(*out),
		Start:    FormatTime(out.StartTime),
		End:      FormatTime(out.EndTime),
		Duration: Duration(*out),
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
	}
}
