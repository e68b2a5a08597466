// Package market derives the group label an application is reported under.
package market

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joshsymonds/appquality/internal/config"
	"github.com/joshsymonds/appquality/internal/models"
)

// Labeler derives a group label from an application. ok is false when the
// application has no label and must be left out of the report.
type Labeler interface {
	Label(e *models.Entity) (label string, ok bool)
}

// LabelFunc adapts a plain function to the Labeler interface.
type LabelFunc func(e *models.Entity) (string, bool)

// Label calls f(e).
func (f LabelFunc) Label(e *models.Entity) (string, bool) {
	return f(e)
}

// TagGroupLabeler labels an application with the name of its first tag in a
// tag group.
type TagGroupLabeler struct {
	Group string
}

// Label implements Labeler.
func (l TagGroupLabeler) Label(e *models.Entity) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, t := range e.Tags {
		if t.Group == l.Group && t.Name != "" {
			return t.Name, true
		}
	}
	return "", false
}

// NamePrefixLabeler labels an application from its name. The label is the
// first capture group of the pattern, or the whole match when the pattern has
// no groups.
type NamePrefixLabeler struct {
	pattern *regexp.Regexp
}

// NewNamePrefixLabeler compiles pattern into a labeler.
func NewNamePrefixLabeler(pattern string) (*NamePrefixLabeler, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling name pattern: %w", err)
	}
	return &NamePrefixLabeler{pattern: re}, nil
}

// Label implements Labeler.
func (l *NamePrefixLabeler) Label(e *models.Entity) (string, bool) {
	if e == nil {
		return "", false
	}
	m := l.pattern.FindStringSubmatch(e.Name)
	if m == nil {
		return "", false
	}
	label := m[0]
	if len(m) > 1 {
		label = m[1]
	}
	label = strings.TrimSpace(label)
	return label, label != ""
}

// New builds the labeler selected by the grouping configuration.
func New(cfg config.GroupingConfig) (Labeler, error) {
	switch cfg.Strategy {
	case config.GroupByTagGroup:
		if cfg.TagGroup == "" {
			return nil, fmt.Errorf("tag group strategy needs a tag group name")
		}
		return TagGroupLabeler{Group: cfg.TagGroup}, nil
	case config.GroupByNamePrefix:
		return NewNamePrefixLabeler(cfg.Pattern)
	default:
		return nil, fmt.Errorf("unknown grouping strategy %q", cfg.Strategy)
	}
}
