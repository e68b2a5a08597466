package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/appquality/pkg/logger"
)

// Format renders a report.
type Format interface {
	// Render writes the report to w.
	Render(w io.Writer, rep *Report) error
	// Name returns the format identifier (e.g., "table", "html").
	Name() string
	// Extension returns the file extension used when the report is saved.
	Extension() string
	// Description returns a human-readable description of the format.
	Description() string
}

// FormatFactory creates instances of report formats.
type FormatFactory func(log logger.Logger) (Format, error)

var (
	formatRegistry = make(map[string]FormatFactory)
	registryMutex  sync.RWMutex
)

// RegisterFormat registers a new report format factory.
func RegisterFormat(name string, factory FormatFactory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if factory == nil {
		panic(fmt.Sprintf("report: RegisterFormat factory is nil for format %q", name))
	}
	if _, dup := formatRegistry[name]; dup {
		panic(fmt.Sprintf("report: RegisterFormat called twice for format %q", name))
	}
	formatRegistry[name] = factory
}

// GetFormat creates an instance of the specified report format.
func GetFormat(name string, log logger.Logger) (Format, error) {
	registryMutex.RLock()
	factory, exists := formatRegistry[name]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown report format: %s", name)
	}

	return factory(log)
}

// ListFormats returns the registered format names in sorted order.
func ListFormats() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	formats := make([]string, 0, len(formatRegistry))
	for name := range formatRegistry {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

type jsonFormat struct{}

func (jsonFormat) Render(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}

func (jsonFormat) Name() string        { return "json" }
func (jsonFormat) Extension() string   { return "json" }
func (jsonFormat) Description() string { return "Rows with drill-down links as indented JSON" }

type yamlFormat struct{}

func (yamlFormat) Render(w io.Writer, rep *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding YAML report: %w", err)
	}
	return enc.Close()
}

func (yamlFormat) Name() string        { return "yaml" }
func (yamlFormat) Extension() string   { return "yaml" }
func (yamlFormat) Description() string { return "Rows with drill-down links as YAML" }

// Register built-in formats during package initialization.
func init() {
	RegisterFormat("table", func(_ logger.Logger) (Format, error) {
		return NewTableFormat(), nil
	})
	RegisterFormat("json", func(_ logger.Logger) (Format, error) {
		return jsonFormat{}, nil
	})
	RegisterFormat("yaml", func(_ logger.Logger) (Format, error) {
		return yamlFormat{}, nil
	})
	RegisterFormat("html", func(log logger.Logger) (Format, error) {
		f, err := NewHTMLFormat(log)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
}
