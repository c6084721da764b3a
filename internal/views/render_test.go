package views

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metorial/script-admin/internal/controller"
	"github.com/metorial/script-admin/internal/models"
	"github.com/metorial/script-admin/internal/seed"
)

func render(t *testing.T, st controller.State) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, NewPage(st)))
	return buf.String()
}

func TestRenderList(t *testing.T) {
	html := render(t, controller.State{
		Scripts:          seed.Scripts(),
		Categories:       seed.Categories(),
		SelectedCategory: "utility",
	})

	require.Contains(t, html, "Hello World")
	require.Contains(t, html, "Current Time")
	require.NotContains(t, html, "Python Version")
	require.Contains(t, html, "Run a script to see output here")
	require.NotContains(t, html, `id="script-form"`)
}

func TestRenderEmptyCategory(t *testing.T) {
	html := render(t, controller.State{
		Scripts:          seed.Scripts(),
		Categories:       seed.Categories(),
		SelectedCategory: "web",
	})

	require.Contains(t, html, "No scripts available in this category.")
	require.NotContains(t, html, `id="empty-state"`)
}

func TestRenderEmptyState(t *testing.T) {
	html := render(t, controller.State{Categories: seed.Categories()})
	require.Contains(t, html, `id="empty-state"`)
}

func TestRenderFormAndOutput(t *testing.T) {
	script := seed.Scripts()[2]
	start := time.Now()
	end := start.Add(2 * time.Second)

	html := render(t, controller.State{
		Scripts:        seed.Scripts(),
		Categories:     seed.Categories(),
		SelectedScript: &script,
		Output: &models.ScriptOutput{
			Stdout:    "Sample output",
			Stderr:    "",
			ExitCode:  models.IntPtr(3),
			StartTime: &start,
			EndTime:   &end,
		},
		Form: controller.FormState{Open: true, Editing: &script},
	})

	require.Contains(t, html, "Edit Script")
	require.Contains(t, html, `value="hello-world"`)
	require.Contains(t, html, "Output: Hello World")
	require.Contains(t, html, "Error (Code: 3)")
	require.Contains(t, html, "Duration: 2.00s")
	require.Contains(t, html, "STDOUT:")
	require.NotContains(t, html, "STDERR:")
}

func TestRenderNotice(t *testing.T) {
	html := render(t, controller.State{Categories: seed.Categories(), Notice: "Failed to save script: <boom>"})
	require.Contains(t, html, "Failed to save script: &lt;boom&gt;")
}

func TestRenderRunningReloadsOnIdleState(t *testing.T) {
	html := render(t, controller.State{Scripts: seed.Scripts(), Categories: seed.Categories(), Running: true})
	require.Contains(t, html, `evt.type === "state" && !evt.data.running`)
	require.Contains(t, html, `evt.type === "output" && !evt.data.output.is_running`)

	idle := render(t, controller.State{Scripts: seed.Scripts(), Categories: seed.Categories()})
	require.NotContains(t, idle, "/api/v1/events")
}

func TestRenderDraftAfterRejectedSave(t *testing.T) {
	draft := models.Script{Name: "Half typed", Description: "kept", Command: "", Category: "utility"}
	html := render(t, controller.State{
		Scripts:    seed.Scripts(),
		Categories: seed.Categories(),
		Form:       controller.FormState{Open: true, Draft: &draft},
		Notice:     "Invalid script: command is required",
	})

	require.Contains(t, html, "Add New Script")
	require.Contains(t, html, `value="Half typed"`)
	require.Contains(t, html, "kept")
}

func TestRenderNoticeDismiss(t *testing.T) {
	html := render(t, controller.State{Categories: seed.Categories(), Notice: "Failed to delete script"})
	require.Contains(t, html, `action="/ui/notice/dismiss"`)

	clean := render(t, controller.State{Categories: seed.Categories()})
	require.NotContains(t, clean, "/ui/notice/dismiss")
}
