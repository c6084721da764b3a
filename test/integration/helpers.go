package integration

import (
	"context"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/metorial/script-admin/internal/controller"
	"github.com/metorial/script-admin/internal/events"
	"github.com/metorial/script-admin/internal/seed"
	"github.com/metorial/script-admin/internal/service"
	"github.com/metorial/script-admin/internal/store"
	"github.com/metorial/script-admin/internal/views"
	"github.com/metorial/script-admin/internal/web"
)

// startServer wires a store-backed server the way cmd/server does and
// serves it over httptest.
func startServer(t *testing.T, dbPath string, runner service.Runner) (*httptest.Server, *controller.Controller, *store.DB) {
	t.Helper()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	ctx := context.Background()
	if _, err := db.SeedScripts(ctx, seed.Scripts()); err != nil {
		t.Fatalf("Failed to seed scripts: %v", err)
	}

	scripts, err := db.LoadScripts(ctx)
	if err != nil {
		t.Fatalf("Failed to load scripts: %v", err)
	}

	broker := events.NewBroker(16, nil)
	ctrl := controller.New(controller.Options{
		Runner:     runner,
		Persister:  db,
		Categories: seed.Categories(),
		Scripts:    scripts,
		Publisher:  broker,
		RunTimeout: 10 * time.Second,
		NewID:      views.NewScriptID,
	})

	renderer, err := views.NewRenderer()
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}

	srv := web.NewServer(web.Options{
		Controller: ctrl,
		Renderer:   renderer,
		Broker:     broker,
		History:    db,
		Pinger:     db,
		RunTimeout: 10 * time.Second,
	})

	httpServer := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		httpServer.Close()
		ctrl.Close()
		db.Close()
	})

	return httpServer, ctrl, db
}

func countRows(t *testing.T, db *store.DB, query string, args ...interface{}) int {
	t.Helper()

	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to query %q: %v", query, err)
	}
	return n
}

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
}
