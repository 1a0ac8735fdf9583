// Package config provides configuration models and helpers for the PIM
// formatter.
//
// This file adds a lightweight linter for Config values. It performs static
// checks and returns a list of issues (errors and warnings) that callers can
// surface in the CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "layout.filter.column",
// "layout.counts[1].target"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateConfig performs static validation of cfg. It does not mutate cfg.
func ValidateConfig(cfg Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and logs for a run",
		})
	}
	issues = append(issues, validateLayout(cfg.Layout)...)
	issues = append(issues, validatePreset(cfg.Preset)...)
	issues = append(issues, validateExport(cfg.Export)...)
	issues = append(issues, validateFinalize(cfg.Finalize, cfg.Layout)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	return issues
}

func position(path string, col int) []Issue {
	if col >= 1 {
		return nil
	}
	return []Issue{{
		Severity: SeverityError,
		Path:     path,
		Message:  fmt.Sprintf("column %d is not a 1-based position", col),
	}}
}

func validateLayout(l Layout) []Issue {
	var issues []Issue
	r := l.Restructure

	for _, e := range []struct {
		name string
		mv   ColumnMove
	}{{"move", r.Move}, {"copy", r.Copy}} {
		base, mv := "layout.restructure."+e.name, e.mv
		if len(mv.From) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     base + ".from",
				Message:  "no columns listed; this edit is skipped",
			})
			continue
		}
		for i, c := range mv.From {
			issues = append(issues, position(fmt.Sprintf("%s.from[%d]", base, i), c)...)
		}
		issues = append(issues, position(base+".to", mv.To)...)
	}
	issues = append(issues, position("layout.restructure.placeholder.column", r.Placeholder.Column)...)
	issues = append(issues, position("layout.restructure.spacer.at", r.Spacer.At)...)
	if r.Spacer.Count < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "layout.restructure.spacer.count",
			Message:  "count must not be negative",
		})
	}
	for i, h := range r.Headers {
		path := fmt.Sprintf("layout.restructure.headers[%d]", i)
		issues = append(issues, position(path+".column", h.Column)...)
		switch h.Highlight {
		case "", "key", "result", "alert":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".highlight",
				Message:  fmt.Sprintf("unknown highlight %q; want key, result or alert", h.Highlight),
			})
		}
	}

	issues = append(issues, position("layout.filter.column", l.Filter.Column)...)
	if len(l.Filter.Keywords) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "layout.filter.keywords",
			Message:  "at least one keyword is required; no row could qualify",
		})
	}
	for i, kw := range l.Filter.Keywords {
		if strings.TrimSpace(kw) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("layout.filter.keywords[%d]", i),
				Message:  "empty keyword would qualify every non-empty row",
			})
		}
	}

	issues = append(issues, keyRule("layout.keys.primary", l.Keys.Primary)...)
	issues = append(issues, keyRule("layout.keys.secondary", l.Keys.Secondary)...)
	issues = append(issues, keyRule("layout.part.key", l.Part.Key)...)
	issues = append(issues, position("layout.part.first", l.Part.First)...)
	issues = append(issues, position("layout.part.second", l.Part.Second)...)
	if strings.TrimSpace(l.Part.Selector) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "layout.part.selector",
			Message:  "empty selector always picks the second part column when the first is non-empty",
		})
	}
	issues = append(issues, position("layout.lookup.key", l.Lookup.Key)...)
	issues = append(issues, position("layout.lookup.result", l.Lookup.Result)...)

	targets := map[int]int{}
	for i, c := range l.Counts {
		path := fmt.Sprintf("layout.counts[%d]", i)
		issues = append(issues, position(path+".source", c.Source)...)
		issues = append(issues, position(path+".target", c.Target)...)
		if prev, ok := targets[c.Target]; ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".target",
				Message:  fmt.Sprintf("target column %d already used by counts[%d]", c.Target, prev),
			})
		}
		targets[c.Target] = i
	}
	issues = append(issues, position("layout.preset_key", l.PresetKey)...)
	return issues
}

func keyRule(path string, k KeyRule) []Issue {
	var issues []Issue
	issues = append(issues, position(path+".target", k.Target)...)
	issues = append(issues, position(path+".left", k.Left)...)
	issues = append(issues, position(path+".right", k.Right)...)
	return issues
}

func validatePreset(p PresetStore) []Issue {
	var issues []Issue
	switch p.Kind {
	case "sqlite", "postgres", "mssql":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "preset.kind",
			Message:  "preset.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "preset.kind",
			Message:  fmt.Sprintf("unknown preset store kind %q; ensure a matching implementation is registered", p.Kind),
		})
	}
	if strings.TrimSpace(p.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "preset.dsn",
			Message:  "preset store requires a DSN",
		})
	}
	if len([]rune(p.Comma)) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "preset.comma",
			Message:  "comma must be a single character",
		})
	}
	return issues
}

func validateExport(e Export) []Issue {
	var issues []Issue
	for _, f := range [][2]string{
		{"export.preset_file", e.PresetFile},
		{"export.processed_file", e.ProcessedFile},
	} {
		path, name := f[0], f[1]
		if strings.TrimSpace(name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "file name must not be empty",
			})
		} else if strings.Contains(name, "{date}") && e.DateLayout == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "export.date_layout",
				Message:  fmt.Sprintf("%s uses {date} but date_layout is empty", path),
			})
		}
	}
	return issues
}

func validateFinalize(f Finalize, l Layout) []Issue {
	var issues []Issue
	for i, c := range f.DropColumns {
		path := fmt.Sprintf("finalize.drop_columns[%d]", i)
		issues = append(issues, position(path, c)...)
		if c == l.Lookup.Result {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  "dropping the lookup result column discards the Datasheet values",
			})
		}
	}
	return issues
}

func validateMetrics(m MetricsOptions) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "prometheus", "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires a Pushgateway URL",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DogStatsDAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.dogstatsd_addr",
				Message:  "datadog backend requires a DogStatsD address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics are disabled", m.Backend),
		})
	}
	return issues
}
