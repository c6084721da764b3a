package views

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/metorial/script-admin/internal/models"
)

// Form holds the editable fields of a script. ID is empty in create mode.
type Form struct {
	ID          string
	Name        string
	Description string
	Command     string
	Category    string
}

func NewForm(existing *models.Script, categories []models.Category) Form {
	if existing != nil {
		return Form{
			ID:          existing.ID,
			Name:        existing.Name,
			Description: existing.Description,
			Command:     existing.Command,
			Category:    existing.Category,
		}
	}

	f := Form{}
	if len(categories) > 0 {
		f.Category = categories[0].ID
	}
	return f
}

// FormFromValues reads a submitted form body.
func FormFromValues(values url.Values) Form {
	return Form{
		ID:          strings.TrimSpace(values.Get("id")),
		Name:        values.Get("name"),
		Description: values.Get("description"),
		Command:     values.Get("command"),
		Category:    values.Get("category"),
	}
}

func (f Form) Editing() bool { return f.ID != "" }

func (f Form) Validate() error {
	return f.Script(nil).Validate()
}

// Script builds the record to save, assigning newID() when the form has no
// id. A nil newID leaves the id empty for the controller to assign.
func (f Form) Script(newID func() string) models.Script {
	id := f.ID
	if id == "" && newID != nil {
		id = newID()
	}
	return models.Script{
		ID:          id,
		Name:        f.Name,
		Description: f.Description,
		Command:     f.Command,
		Category:    f.Category,
	}
}

// NewScriptID derives an id from the current time with a random suffix.
func NewScriptID() string {
	return fmt.Sprintf("script-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

type FormView struct {
	Form
	Heading    string
	Categories []models.Category
}

// NewFormView fills the form from draft when a submission was rejected,
// otherwise from the script being edited.
func NewFormView(editing, draft *models.Script, categories []models.Category) *FormView {
	heading := "Add New Script"
	if editing != nil {
		heading = "Edit Script"
	}
	source := editing
	if draft != nil {
		source = draft
	}
	return &FormView{
		Form:       NewForm(source, categories),
		Heading:    heading,
		Categories: categories,
	}
}
