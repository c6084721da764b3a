package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/metorial/script-admin/internal/controller"
	"github.com/metorial/script-admin/internal/models"
	"github.com/metorial/script-admin/internal/seed"
)

func decode(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	decode(t, w.Body, &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
	if response["database"] != "connected" {
		t.Errorf("Expected database connected, got %v", response["database"])
	}
}

func TestHandleHealthDatabaseDown(t *testing.T) {
	env := setupTestServer(t)
	env.db.Close()

	w := env.do(t, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestHandleCategories(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/categories", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Categories []models.Category `json:"categories"`
		Count      int               `json:"count"`
	}
	decode(t, w.Body, &response)

	if response.Count != 4 {
		t.Errorf("Expected 4 categories, got %d", response.Count)
	}
	if response.Categories[0].ID != "system" {
		t.Errorf("Expected system first, got %s", response.Categories[0].ID)
	}
}

func TestHandleListScripts(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"python-version", "list-files", "hello-world", "system-info", "current-time"}},
		{"?category=utility", []string{"hello-world", "current-time"}},
		{"?category=web", nil},
	}

	for _, tt := range tests {
		w := env.do(t, http.MethodGet, "/api/v1/scripts"+tt.query, "")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var response struct {
			Scripts []models.Script `json:"scripts"`
			Count   int             `json:"count"`
		}
		decode(t, w.Body, &response)

		if response.Count != len(tt.want) {
			t.Fatalf("%q: expected %d scripts, got %d", tt.query, len(tt.want), response.Count)
		}
		for i, id := range tt.want {
			if response.Scripts[i].ID != id {
				t.Errorf("%q: expected script %d to be %s, got %s", tt.query, i, id, response.Scripts[i].ID)
			}
		}
	}
}

func TestHandleCreateScript(t *testing.T) {
	env := setupTestServer(t)

	body := `{"name":"Disk Usage","description":"Show disk usage","command":"df -h","category":""}`
	w := env.do(t, http.MethodPost, "/api/v1/scripts", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Script
	decode(t, w.Body, &created)

	if !strings.HasPrefix(created.ID, "script-") {
		t.Errorf("Expected generated id, got %s", created.ID)
	}
	if created.Category != "system" {
		t.Errorf("Expected default category system, got %s", created.Category)
	}

	scripts := env.ctrl.Scripts()
	if last := scripts[len(scripts)-1]; last.ID != created.ID {
		t.Errorf("Expected new script appended, last is %s", last.ID)
	}

	stored, err := env.db.GetScript(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Expected script in database: %v", err)
	}
	if stored.Command != "df -h" {
		t.Errorf("Expected stored command df -h, got %s", stored.Command)
	}
}

func TestHandleCreateScriptInvalid(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"name":`},
		{"missing name", `{"command":"ls"}`},
		{"blank command", `{"name":"x","command":"   "}`},
		{"unknown category", `{"name":"x","command":"ls","category":"bogus"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/scripts", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}

	if got := len(env.ctrl.Scripts()); got != 5 {
		t.Errorf("Expected 5 scripts after rejected creates, got %d", got)
	}
}

func TestHandleCreateScriptAssignsDistinctIDs(t *testing.T) {
	env := setupTestServer(t)

	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/scripts", `{"name":"a","command":"true"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		var created models.Script
		decode(t, w.Body, &created)
		if created.ID == "" || seen[created.ID] {
			t.Fatalf("Expected a fresh id, got %q", created.ID)
		}
		seen[created.ID] = true
	}

	for id := range seen {
		if w := env.do(t, http.MethodDelete, "/api/v1/scripts/"+id, ""); w.Code != http.StatusOK {
			t.Errorf("Expected delete of %s to succeed, got %d", id, w.Code)
		}
	}
}

func TestHandleCreateScriptBackendFailure(t *testing.T) {
	env := newTestEnv(t, failingPersister{}, seed.Scripts(), nil)

	w := env.do(t, http.MethodPost, "/api/v1/scripts", `{"name":"x","command":"ls"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}

	if got := len(env.ctrl.Scripts()); got != 5 {
		t.Errorf("Expected collection unchanged, got %d scripts", got)
	}

	if notice := env.ctrl.Snapshot().Notice; !strings.Contains(notice, "backend unavailable") {
		t.Errorf("Expected notice to mention the failure, got %q", notice)
	}
}

func TestHandleGetScript(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/scripts/hello-world", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var script models.Script
	decode(t, w.Body, &script)
	if script.Name != "Hello World" {
		t.Errorf("Expected Hello World, got %s", script.Name)
	}

	w = env.do(t, http.MethodGet, "/api/v1/scripts/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleUpdateScript(t *testing.T) {
	env := setupTestServer(t)

	body := `{"name":"Hello Again","description":"","command":"echo again","category":"utility"}`
	w := env.do(t, http.MethodPut, "/api/v1/scripts/hello-world", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	scripts := env.ctrl.Scripts()
	if len(scripts) != 5 {
		t.Fatalf("Expected 5 scripts, got %d", len(scripts))
	}
	if scripts[2].ID != "hello-world" || scripts[2].Name != "Hello Again" {
		t.Errorf("Expected in-place update at index 2, got %+v", scripts[2])
	}

	w = env.do(t, http.MethodPut, "/api/v1/scripts/missing", body)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleDeleteScript(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodDelete, "/api/v1/scripts/list-files", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if _, ok := env.ctrl.Script("list-files"); ok {
		t.Error("Expected script removed from controller")
	}

	count, err := env.db.CountScripts(context.Background())
	if err != nil {
		t.Fatalf("Failed to count scripts: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 scripts in database, got %d", count)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/scripts/list-files", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestHandleDeleteScriptBackendFailure(t *testing.T) {
	env := newTestEnv(t, failingPersister{}, seed.Scripts(), nil)

	w := env.do(t, http.MethodDelete, "/api/v1/scripts/list-files", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}

	if _, ok := env.ctrl.Script("list-files"); !ok {
		t.Error("Expected script kept after failed delete")
	}
}

func TestHandleRunScriptWait(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/scripts/hello-world/run?wait=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var event controller.OutputEvent
	decode(t, w.Body, &event)

	if event.Output.IsRunning {
		t.Error("Expected finished output")
	}
	if event.Output.ExitCode == nil || *event.Output.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %v", event.Output.ExitCode)
	}
	if !strings.Contains(event.Output.Stdout, "Sample output for: Hello World") {
		t.Errorf("Unexpected stdout: %q", event.Output.Stdout)
	}

	w = env.do(t, http.MethodGet, "/api/v1/scripts/hello-world/executions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var history struct {
		Executions []models.ScriptExecution `json:"executions"`
		Count      int                      `json:"count"`
	}
	decode(t, w.Body, &history)

	if history.Count != 1 {
		t.Fatalf("Expected 1 execution, got %d", history.Count)
	}
	if history.Executions[0].SHA256Hash != models.HashCommand(seed.Scripts()[2].Command) {
		t.Errorf("Unexpected hash %s", history.Executions[0].SHA256Hash)
	}
}

func TestHandleRunScriptAsync(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/scripts/current-time/run", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}

	var event controller.OutputEvent
	decode(t, w.Body, &event)

	if !event.Output.IsRunning {
		t.Error("Expected running placeholder")
	}
	if event.Output.ExitCode != nil {
		t.Errorf("Expected no exit code while running, got %d", *event.Output.ExitCode)
	}

	waitIdle(t, env.ctrl)

	w = env.do(t, http.MethodGet, "/api/v1/scripts/current-time/output", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	decode(t, w.Body, &event)
	if event.Output.IsRunning {
		t.Error("Expected finished output after wait")
	}
}

func TestHandleRunScriptNotFound(t *testing.T) {
	env := setupTestServer(t)

	for _, target := range []string{"/api/v1/scripts/missing/run", "/api/v1/scripts/missing/run?wait=true"} {
		w := env.do(t, http.MethodPost, target, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, w.Code)
		}
	}
}

func TestHandleGetOutputNone(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/scripts/hello-world/output", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 before any run, got %d", w.Code)
	}
}

func TestHandleExecutionsDisabled(t *testing.T) {
	env := newTestEnv(t, failingPersister{}, seed.Scripts(), nil)

	w := env.do(t, http.MethodGet, "/api/v1/scripts/hello-world/executions", "")
	if w.Code != http.StatusNotImplemented {
		t.Errorf("Expected status 501, got %d", w.Code)
	}
}

func TestHandleStats(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	decode(t, w.Body, &response)

	if response["scripts"] != float64(5) {
		t.Errorf("Expected 5 scripts, got %v", response["scripts"])
	}
	if response["running"] != false {
		t.Errorf("Expected running false, got %v", response["running"])
	}
	if _, ok := response["host"]; ok {
		t.Error("Expected no host stats without a collector")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPatch, "/api/v1/scripts/hello-world", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}
