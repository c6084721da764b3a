package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/metorial/script-admin/internal/controller"
)

//go:embed templates/*.html
var templateFS embed.FS

type Page struct {
	Notice     string
	Form       *FormView
	List       ListView
	Output     OutputView
	Running    bool
	EmptyState bool
}

// NewPage derives everything the page shows from a controller snapshot.
func NewPage(st controller.State) Page {
	page := Page{
		Notice:  st.Notice,
		List:    NewListView(st.Scripts, st.Categories, st.SelectedCategory),
		Running: st.Running,
	}

	if st.Form.Open {
		page.Form = NewFormView(st.Form.Editing, st.Form.Draft, st.Categories)
	}

	scriptName := ""
	if st.SelectedScript != nil {
		scriptName = st.SelectedScript.Name
	}
	page.Output = NewOutputView(st.Output, scriptName)

	page.EmptyState = !st.Form.Open && st.SelectedScript == nil && len(st.Scripts) == 0

	return page
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(w io.Writer, page Page) error {
	return r.tmpl.ExecuteTemplate(w, "page", page)
}
