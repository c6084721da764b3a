package views

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metorial/script-admin/internal/models"
	"github.com/metorial/script-admin/internal/seed"
)

func TestNewFormCreateMode(t *testing.T) {
	f := NewForm(nil, seed.Categories())
	require.Equal(t, Form{Category: "system"}, f)
	require.False(t, f.Editing())

	require.Equal(t, "", NewForm(nil, nil).Category)
}

func TestNewFormEditMode(t *testing.T) {
	existing := seed.Scripts()[2]
	f := NewForm(&existing, seed.Categories())

	require.True(t, f.Editing())
	require.Equal(t, existing, f.Script(func() string { t.Fatal("unexpected id generation"); return "" }))
}

func TestFormScriptAssignsID(t *testing.T) {
	f := Form{Name: "Disk", Command: "df -h", Category: "system"}
	s := f.Script(func() string { return "script-1" })
	require.Equal(t, "script-1", s.ID)
}

func TestFormValidate(t *testing.T) {
	require.NoError(t, Form{Name: "a", Command: "b"}.Validate())
	require.ErrorIs(t, Form{Command: "b"}.Validate(), models.ErrValidation)
	require.ErrorIs(t, Form{Name: "a", Command: "  "}.Validate(), models.ErrValidation)
}

func TestFormFromValues(t *testing.T) {
	values := url.Values{
		"id":          {" hello-world "},
		"name":        {"Hello"},
		"description": {"desc"},
		"command":     {"echo hi"},
		"category":    {"utility"},
	}

	f := FormFromValues(values)
	require.Equal(t, Form{ID: "hello-world", Name: "Hello", Description: "desc", Command: "echo hi", Category: "utility"}, f)
}

func TestNewScriptIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range seed.Scripts() {
		seen[s.ID] = true
	}

	for i := 0; i < 100; i++ {
		id := NewScriptID()
		require.True(t, strings.HasPrefix(id, "script-"))
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewFormView(t *testing.T) {
	require.Equal(t, "Add New Script", NewFormView(nil, nil, seed.Categories()).Heading)

	existing := seed.Scripts()[0]
	fv := NewFormView(&existing, nil, seed.Categories())
	require.Equal(t, "Edit Script", fv.Heading)
	require.Equal(t, existing.ID, fv.ID)
}

func TestNewFormViewPrefersDraft(t *testing.T) {
	draft := models.Script{Name: "Typed", Command: "", Category: "utility"}
	fv := NewFormView(nil, &draft, seed.Categories())
	require.Equal(t, "Add New Script", fv.Heading)
	require.Equal(t, Form{Name: "Typed", Category: "utility"}, fv.Form)
	require.False(t, fv.Editing())

	existing := seed.Scripts()[0]
	edited := existing
	edited.Name = ""
	fv = NewFormView(&existing, &edited, seed.Categories())
	require.Equal(t, "Edit Script", fv.Heading)
	require.Equal(t, existing.ID, fv.ID)
	require.Equal(t, "", fv.Name)
}

func TestFormScriptWithoutGenerator(t *testing.T) {
	s := Form{Name: "Disk", Command: "df -h"}.Script(nil)
	require.Equal(t, "", s.ID)
}
