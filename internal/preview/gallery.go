// Package preview serves a browsable gallery of the md2 template tags,
// including a staff directory backed by the entity repository.
package preview

import (
	"html/template"
	"io"
	"slices"

	dErrors "neom/pkg/domain-errors"
	"neom/pkg/kit"
	"neom/pkg/kit/md2"
)

// Page is the data every gallery page renders.
type Page struct {
	Title     string
	Nav       []string
	Members   []Member
	RequestID string
}

// Renderer renders named gallery pages.
type Renderer interface {
	Pages() []string
	Render(w io.Writer, name string, page Page) error
}

const (
	layoutOpen = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>{{.Title}}</title>` +
		`{{template "neom_md2_style_script" .}}{{neom_md2_icons}}</head><body>` +
		`<nav>{{range .Nav}}<a href="/{{.}}">{{.}}</a> {{end}}</nav><main>`
	layoutClose = `</main><footer>{{.RequestID}}</footer></body></html>`
)

var sources = map[string]string{
	"index": `{{range .Nav}}{{neom_md2_card_outlined_open}}<h2>{{.}}</h2>` +
		`{{neom_md2_card_actions_open}}{{neom_md2_card_action_link "Open" .}}{{neom_md2_card_actions_close}}` +
		`{{neom_md2_card_outlined_close}}{{end}}`,

	"buttons": `{{neom_md2_card_outlined_open}}<h2>Buttons</h2>` +
		`{{neom_md2_button_text "Text"}}{{neom_md2_button_outlined "Outlined"}}{{neom_md2_button_contained "Contained"}}` +
		`{{neom_md2_card_outlined_close}}`,

	"cards": `{{neom_md2_card_elevated_open}}<h2>Elevated</h2>` +
		`{{neom_md2_card_actions_open}}{{neom_md2_card_action_button "Share"}}` +
		`{{neom_md2_card_action_link "Buttons" "buttons"}}{{neom_md2_card_actions_close}}` +
		`{{neom_md2_card_elevated_close}}` +
		`{{neom_md2_card_outlined_open}}<h2>Outlined</h2>` +
		`{{neom_md2_card_actions_full_bleed_open}}{{neom_md2_card_action_link "All components" "index"}}` +
		`{{neom_md2_card_actions_full_bleed_close}}{{neom_md2_card_outlined_close}}`,

	"staff": `{{range .Members}}{{neom_md2_card_outlined_open}}<h2>{{.Name}}</h2><p>{{.Role}}</p>` +
		`<p><span class="{{key "material-icons"}}">phone</span> {{.Mobile}}</p>` +
		`{{neom_md2_card_actions_open}}{{neom_md2_card_action_link "Email" (printf "mailto:%s" .Email)}}` +
		`{{neom_md2_card_actions_close}}{{neom_md2_card_outlined_close}}` +
		`{{else}}<p>No staff members.</p>{{end}}`,
}

// Gallery renders the md2 component pages.
type Gallery struct {
	pages map[string]*template.Template
	names []string
}

// NewGallery parses every page against a kit library with the md2 tags
// registered.
func NewGallery(tokens kit.Tokens) (*Gallery, error) {
	lib := kit.NewLibrary(kit.WithTokens(tokens))
	if err := md2.Register(lib); err != nil {
		return nil, err
	}

	g := &Gallery{pages: make(map[string]*template.Template, len(sources))}
	for name, src := range sources {
		tpl, err := lib.Parse(name, layoutOpen+src+layoutClose)
		if err != nil {
			return nil, err
		}
		g.pages[name] = tpl
		if name != "index" {
			g.names = append(g.names, name)
		}
	}
	slices.Sort(g.names)
	return g, nil
}

// Pages lists the browsable pages, excluding the index.
func (g *Gallery) Pages() []string {
	return slices.Clone(g.names)
}

func (g *Gallery) Render(w io.Writer, name string, page Page) error {
	tpl, ok := g.pages[name]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown page "+name)
	}
	if page.Nav == nil {
		page.Nav = g.names
	}
	if page.Title == "" {
		page.Title = name
	}
	return tpl.Execute(w, page)
}
