package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Document.Validate.
const (
	DefaultSourceLimit    = 10
	DefaultMaxItems       = 15
	DefaultMaxPayload     = 1900
	DefaultPace           = 2 * time.Second
	DefaultRetention      = 14 * 24 * time.Hour
	DefaultMaxInputChars  = 3000
	DefaultSummaryTimeout = 60 * time.Second
)

// Document is the top-level structure of a herald.yaml file. One document
// describes one digest: a set of feeds delivered to one webhook sink with one
// seen store.
type Document struct {
	Digest Digest `yaml:"digest"`
}

// Digest contains the complete digest configuration.
type Digest struct {
	Name      string         `yaml:"name"`
	Trigger   *CronTrigger   `yaml:"trigger,omitempty"`
	Sources   []Source       `yaml:"sources"`
	Freshness Freshness      `yaml:"freshness,omitempty"`
	Store     StoreConfig    `yaml:"store"`
	Summary   *SummaryConfig `yaml:"summary,omitempty"`
	Dispatch  DispatchConfig `yaml:"dispatch,omitempty"`
}

// CronTrigger defines the schedule for repeated runs. Unused in run-once mode.
type CronTrigger struct {
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone,omitempty"`
}

// Source describes one feed being polled.
type Source struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
	Tag  string `yaml:"tag,omitempty"`
	// Limit bounds how many of the newest entries are considered per run.
	Limit int `yaml:"limit,omitempty"`
	// Filter is an optional expr-lang boolean expression; entries matching
	// it are dropped before enrichment.
	Filter string `yaml:"filter,omitempty"`
}

// Freshness controls which entries are recent enough to deliver. At most one
// of NotBefore and Window is honored; NotBefore wins when both are set.
// Entries without a parseable timestamp are treated as recent.
type Freshness struct {
	NotBefore Date     `yaml:"not_before,omitempty"`
	Window    Duration `yaml:"window,omitempty"`
}

// StoreConfig selects and configures the seen store backend.
type StoreConfig struct {
	Driver    string   `yaml:"driver,omitempty"` // "file" (default) or "sqlite"
	Path      string   `yaml:"path"`
	Retention Duration `yaml:"retention,omitempty"`
}

// SummaryConfig enables LLM enrichment of candidates. The digest runs without
// summaries when this section or the API key is absent.
type SummaryConfig struct {
	Model          string   `yaml:"model,omitempty"`
	SystemTemplate string   `yaml:"system_template,omitempty"`
	PromptTemplate string   `yaml:"prompt_template,omitempty"`
	MaxInputChars  int      `yaml:"max_input_chars,omitempty"`
	Timeout        Duration `yaml:"timeout,omitempty"`
}

// DispatchConfig bounds per-run chat volume and pacing toward the sink.
type DispatchConfig struct {
	MaxItems   int      `yaml:"max_items,omitempty"`
	MaxPayload int      `yaml:"max_payload,omitempty"`
	Pace       Duration `yaml:"pace,omitempty"`
}

// Load reads and validates a digest document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse digest document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document and fills in defaults.
func (d *Document) Validate() error {
	digest := &d.Digest

	if digest.Name == "" {
		return fmt.Errorf("digest name is required")
	}

	if len(digest.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for i := range digest.Sources {
		src := &digest.Sources[i]
		if src.URL == "" {
			return fmt.Errorf("source %d: url is required", i)
		}
		if u, err := url.Parse(src.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("source %d: invalid url %q", i, src.URL)
		}
		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if src.Limit <= 0 {
			src.Limit = DefaultSourceLimit
		}
	}

	if digest.Trigger != nil && strings.TrimSpace(digest.Trigger.Schedule) == "" {
		return fmt.Errorf("trigger schedule is required when trigger is set")
	}
	if digest.Trigger != nil && digest.Trigger.Timezone != "" {
		if _, err := time.LoadLocation(digest.Trigger.Timezone); err != nil {
			return fmt.Errorf("invalid trigger timezone: %w", err)
		}
	}

	switch digest.Store.Driver {
	case "":
		digest.Store.Driver = "file"
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q", digest.Store.Driver)
	}
	if digest.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if digest.Store.Retention <= 0 {
		digest.Store.Retention = Duration(DefaultRetention)
	}

	if digest.Summary != nil {
		if digest.Summary.MaxInputChars <= 0 {
			digest.Summary.MaxInputChars = DefaultMaxInputChars
		}
		if digest.Summary.Timeout <= 0 {
			digest.Summary.Timeout = Duration(DefaultSummaryTimeout)
		}
	}

	if digest.Dispatch.MaxItems <= 0 {
		digest.Dispatch.MaxItems = DefaultMaxItems
	}
	if digest.Dispatch.MaxPayload <= 0 {
		digest.Dispatch.MaxPayload = DefaultMaxPayload
	}
	if digest.Dispatch.Pace < 0 {
		return fmt.Errorf("dispatch pace must be >= 0")
	}
	if digest.Dispatch.Pace == 0 {
		digest.Dispatch.Pace = Duration(DefaultPace)
	}

	return nil
}
