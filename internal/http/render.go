package http

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/calendar"
)

//go:embed templates
var templateFS embed.FS

// fsLoader serves pongo2 templates from an fs.FS. Names are relative to the
// template root regardless of the including template.
type fsLoader struct {
	fsys fs.FS
}

func (l fsLoader) Abs(_, name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func (l fsLoader) Get(name string) (io.Reader, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Renderer executes the embedded pongo2 templates.
type Renderer struct {
	set *pongo2.TemplateSet
}

// NewRenderer loads templates from the embedded tree. In debug mode templates
// are re-parsed on every render.
func NewRenderer(debug bool) (*Renderer, error) {
	root, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("http: template root: %w", err)
	}
	return newRendererFS(root, debug), nil
}

func newRendererFS(fsys fs.FS, debug bool) *Renderer {
	set := pongo2.NewSet("planner", fsLoader{fsys: fsys})
	set.Debug = debug
	set.Globals.Update(pongo2.Context{
		"date":       calendar.FormatDate,
		"iso":        func(t time.Time) string { return t.Format(calendar.ISODateLayout) },
		"clock":      calendar.FormatClock,
		"duration":   calendar.FormatDuration,
		"color":      calendar.LocationColor,
		"month_name": func(m time.Month) string { return calendar.MonthName(m) },
		"role_label": func(r auth.Role) string { return r.Label() },
	})
	return &Renderer{set: set}
}

// Render executes the named template into w.
func (r *Renderer) Render(w io.Writer, name string, data pongo2.Context) error {
	if r == nil || r.set == nil {
		return fmt.Errorf("http: renderer not configured")
	}
	var (
		tpl *pongo2.Template
		err error
	)
	if r.set.Debug {
		tpl, err = r.set.FromFile(name)
	} else {
		tpl, err = r.set.FromCache(name)
	}
	if err != nil {
		return fmt.Errorf("http: load template %s: %w", name, err)
	}
	if err := tpl.ExecuteWriter(data, w); err != nil {
		return fmt.Errorf("http: execute template %s: %w", name, err)
	}
	return nil
}
