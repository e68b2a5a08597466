// Package config provides configuration loading and validation for appquality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/appquality/pkg/pathutil"
)

// Catalog source kinds.
const (
	SourceFile = "file"
	SourceHTTP = "http"
	SourceS3   = "s3"
)

// Grouping strategies.
const (
	GroupByTagGroup   = "tag_group"
	GroupByNamePrefix = "name_prefix"
)

// Config represents the complete configuration for a report run.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog"`
	Grouping GroupingConfig `yaml:"grouping"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy"`
	Report   ReportConfig   `yaml:"report"`
}

// CatalogConfig selects where catalog query results come from.
type CatalogConfig struct {
	Source   string        `yaml:"source"`
	Dir      string        `yaml:"dir,omitempty"`
	Glob     string        `yaml:"glob,omitempty"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	Bucket   string        `yaml:"bucket,omitempty"`
	Prefix   string        `yaml:"prefix,omitempty"`
	Region   string        `yaml:"region,omitempty"`
	CacheDir string        `yaml:"cache_dir,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

// TagRef names a tag inside a tag group.
type TagRef struct {
	Group string `yaml:"group"`
	Tag   string `yaml:"tag"`
}

// TaxonomyConfig names the tags that select and classify applications.
type TaxonomyConfig struct {
	Application TagRef `yaml:"application"`
	IT          TagRef `yaml:"it"`
	AppMap      TagRef `yaml:"app_map"`
}

// GroupingConfig controls how an application's group label is derived.
type GroupingConfig struct {
	Strategy string `yaml:"strategy"`
	TagGroup string `yaml:"tag_group,omitempty"`
	Pattern  string `yaml:"pattern,omitempty"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	OutputDir        string   `yaml:"output_dir,omitempty"`
	HistoryDB        string   `yaml:"history_db,omitempty"`
	FactSheetBaseURL string   `yaml:"factsheet_base_url,omitempty"`
	Formats          []string `yaml:"formats"`
	AllowEditing     bool     `yaml:"allow_editing"`
}

// Default returns a configuration using the reference taxonomy names and a
// local snapshot directory.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source:  SourceFile,
			Dir:     "catalog",
			Glob:    "**/*.json",
			Timeout: 30 * time.Second,
		},
		Taxonomy: TaxonomyConfig{
			Application: TagRef{Group: "Application Type", Tag: "Application"},
			IT:          TagRef{Group: "CostCentre", Tag: "IT"},
			AppMap:      TagRef{Group: "BC Type", Tag: "AppMap"},
		},
		Grouping: GroupingConfig{
			Strategy: GroupByTagGroup,
			TagGroup: "Market",
		},
		Report: ReportConfig{
			Formats: []string{"table"},
		},
	}
}

// LoadConfig reads and parses a YAML configuration file. Values missing from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	validPath, err := pathutil.ValidateConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(validPath) //nolint:gosec // Path is validated above
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate ensures the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Catalog.validate(); err != nil {
		return err
	}

	for name, ref := range map[string]TagRef{
		"application": c.Taxonomy.Application,
		"it":          c.Taxonomy.IT,
		"app_map":     c.Taxonomy.AppMap,
	} {
		if ref.Group == "" || ref.Tag == "" {
			return fmt.Errorf("taxonomy.%s requires both group and tag", name)
		}
	}

	switch c.Grouping.Strategy {
	case GroupByTagGroup:
		if c.Grouping.TagGroup == "" {
			return fmt.Errorf("grouping.tag_group is required for strategy %q", GroupByTagGroup)
		}
	case GroupByNamePrefix:
		if c.Grouping.Pattern == "" {
			return fmt.Errorf("grouping.pattern is required for strategy %q", GroupByNamePrefix)
		}
		if _, err := regexp.Compile(c.Grouping.Pattern); err != nil {
			return fmt.Errorf("invalid grouping.pattern: %w", err)
		}
	default:
		return fmt.Errorf("unknown grouping.strategy %q", c.Grouping.Strategy)
	}

	if len(c.Report.Formats) == 0 {
		return fmt.Errorf("report.formats must list at least one format")
	}
	if c.Report.FactSheetBaseURL != "" {
		if _, err := url.Parse(c.Report.FactSheetBaseURL); err != nil {
			return fmt.Errorf("invalid report.factsheet_base_url: %w", err)
		}
	}

	return nil
}

func (c CatalogConfig) validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("catalog.timeout must not be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("catalog.cache_ttl must not be negative")
	}

	switch c.Source {
	case SourceFile:
		if c.Dir == "" {
			return fmt.Errorf("catalog.dir is required for source %q", SourceFile)
		}
	case SourceHTTP:
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid catalog.endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("catalog.endpoint must be an http or https URL")
		}
	case SourceS3:
		if c.Bucket == "" {
			return fmt.Errorf("catalog.bucket is required for source %q", SourceS3)
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", c.Source)
	}

	return nil
}
