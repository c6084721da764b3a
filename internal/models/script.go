package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type Script struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Command     string `json:"command" yaml:"command"`
	Category    string `json:"category" yaml:"category"`
}

type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ScriptOutput is the result of a single run. ExitCode is nil while the
// run is in flight and EndTime is only set once it has finished.
type ScriptOutput struct {
	Stdout    string     `json:"stdout"`
	Stderr    string     `json:"stderr"`
	ExitCode  *int       `json:"exit_code"`
	IsRunning bool       `json:"is_running"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Clone returns a copy that shares no pointers with o.
func (o ScriptOutput) Clone() ScriptOutput {
	out := o
	if o.ExitCode != nil {
		code := *o.ExitCode
		out.ExitCode = &code
	}
	if o.StartTime != nil {
		t := *o.StartTime
		out.StartTime = &t
	}
	if o.EndTime != nil {
		t := *o.EndTime
		out.EndTime = &t
	}
	return out
}

type ScriptExecution struct {
	ID         int64     `json:"id"`
	ScriptID   string    `json:"script_id"`
	SHA256Hash string    `json:"sha256_hash"`
	ExitCode   int       `json:"exit_code"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func IntPtr(i int) *int { return &i }

func TimePtr(t time.Time) *time.Time { return &t }

// HashCommand returns the hex sha256 of a command string.
func HashCommand(command string) string {
	hash := sha256.Sum256([]byte(command))
	return hex.EncodeToString(hash[:])
}
