package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshsymonds/appquality/pkg/logger"
)

//go:embed templates/*
var templateFS embed.FS

// HTMLFormat renders a standalone HTML page with one section per group and
// collapsible drill-down lists.
type HTMLFormat struct {
	logger logger.Logger
	tmpl   *template.Template
}

// NewHTMLFormat parses the embedded templates.
func NewHTMLFormat(log logger.Logger) (*HTMLFormat, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &HTMLFormat{logger: log, tmpl: tmpl}, nil
}

// groupSection is the rows of one group, in report order.
type groupSection struct {
	Label string
	Rows  []Row
}

// templateData holds all data for the report template.
type templateData struct {
	GeneratedAt  time.Time
	RunID        string
	Groups       []groupSection
	AllowEditing bool
}

// Render implements Format.
func (f *HTMLFormat) Render(w io.Writer, rep *Report) error {
	data := templateData{
		GeneratedAt:  rep.GeneratedAt,
		RunID:        rep.RunID,
		AllowEditing: rep.Options.AllowEditing,
	}

	index := map[int]int{}
	for _, r := range rep.Rows {
		i, ok := index[r.GroupHandle]
		if !ok {
			i = len(data.Groups)
			index[r.GroupHandle] = i
			data.Groups = append(data.Groups, groupSection{Label: r.Group})
		}
		data.Groups[i].Rows = append(data.Groups[i].Rows, r)
	}

	if err := f.tmpl.ExecuteTemplate(w, "report.html", data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}

	f.logger.Debug("Rendered HTML report", "groups", len(data.Groups), "rows", len(rep.Rows))
	return nil
}

// Name implements Format.
func (f *HTMLFormat) Name() string { return "html" }

// Extension implements Format.
func (f *HTMLFormat) Extension() string { return "html" }

// Description implements Format.
func (f *HTMLFormat) Description() string {
	return "Standalone HTML page with per-group tables and drill-down lists"
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"title": cases.Title(language.English, cases.NoLower).String,
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04 MST")
		},
		"percentClass": func(p int) string {
			switch {
			case p == 100:
				return "full"
			case p >= 50:
				return "partial"
			default:
				return "low"
			}
		},
	}
}
