// Package report flattens rule evaluation results into display rows and
// renders them in the registered output formats.
package report

import (
	"net/url"
	"strings"
	"time"

	"github.com/joshsymonds/appquality/internal/engine"
	"github.com/joshsymonds/appquality/internal/models"
)

const linkTarget = "_blank"

// Options is the display configuration handed to every format.
type Options struct {
	FactSheetBaseURL string `json:"-" yaml:"-"`
	AllowEditing     bool   `json:"allowEditing" yaml:"allowEditing"`
}

// Link points at an application's fact sheet.
type Link struct {
	ID     string `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Link   string `json:"link" yaml:"link"`
	Target string `json:"target" yaml:"target"`
}

// Row is one rule's score in one group.
type Row struct {
	ID               string `json:"id" yaml:"id"`
	Group            string `json:"group" yaml:"group"`
	Rule             string `json:"rule" yaml:"rule"`
	CompliantApps    []Link `json:"compliantApps" yaml:"compliantApps"`
	NonCompliantApps []Link `json:"nonCompliantApps" yaml:"nonCompliantApps"`
	GroupHandle      int    `json:"groupHandle" yaml:"groupHandle"`
	Compliant        int    `json:"compliant" yaml:"compliant"`
	NonCompliant     int    `json:"nonCompliant" yaml:"nonCompliant"`
	Percentage       int    `json:"percentage" yaml:"percentage"`
	Overall          bool   `json:"overallRule" yaml:"overallRule"`
}

// Report is the assembled output of one run.
type Report struct {
	GeneratedAt time.Time      `json:"generatedAt" yaml:"generatedAt"`
	Groups      map[int]string `json:"groups" yaml:"groups"`
	RunID       string         `json:"runId,omitempty" yaml:"runId,omitempty"`
	Rows        []Row          `json:"rows" yaml:"rows"`
	Options     Options        `json:"options" yaml:"options"`
}

// Assemble converts engine output into display rows, preserving row order.
// Aggregate rows never carry drill-down links.
func Assemble(res *engine.Result, opts Options) *Report {
	rep := &Report{
		Groups:  map[int]string{},
		Rows:    []Row{},
		Options: opts,
	}
	if res == nil {
		return rep
	}

	rep.GeneratedAt = res.Now
	rep.Groups = res.Labels()
	rep.Rows = make([]Row, 0, len(res.Rows))

	for _, r := range res.Rows {
		label := rep.Groups[r.Group]
		row := Row{
			ID:               label + "-" + r.Rule,
			Group:            label,
			GroupHandle:      r.Group,
			Rule:             r.Rule,
			Overall:          r.Aggregate,
			Compliant:        r.CompliantCount,
			NonCompliant:     r.NonCompliantCount,
			Percentage:       r.Percentage,
			CompliantApps:    []Link{},
			NonCompliantApps: []Link{},
		}
		if !r.Aggregate {
			row.CompliantApps = links(opts.FactSheetBaseURL, r.Compliant)
			row.NonCompliantApps = links(opts.FactSheetBaseURL, r.NonCompliant)
		}
		rep.Rows = append(rep.Rows, row)
	}

	return rep
}

func links(base string, entities []*models.Entity) []Link {
	out := make([]Link, 0, len(entities))
	for _, e := range entities {
		out = append(out, Link{
			ID:     e.ID,
			Text:   e.Name,
			Link:   FactSheetLink(base, e.ID),
			Target: linkTarget,
		})
	}
	return out
}

// FactSheetLink returns the URL of an application fact sheet under base.
func FactSheetLink(base, id string) string {
	return strings.TrimSuffix(base, "/") + "/factsheet/" + string(models.TypeApplication) + "/" + url.PathEscape(id)
}
