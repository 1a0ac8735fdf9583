package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_DefaultIsClean(t *testing.T) {
	t.Parallel()

	if issues := ValidateConfig(Default()); len(issues) != 0 {
		t.Fatalf("default config has issues: %+v", issues)
	}
}

func TestValidateConfig_KnownStoreKinds(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"sqlite", "postgres", "mssql"} {
		cfg := Default()
		cfg.Preset.Kind = kind
		if issues := ValidateConfig(cfg); len(issues) != 0 {
			t.Errorf("kind %q: unexpected issues %+v", kind, issues)
		}
	}
}

func TestValidateConfig_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{
			name:   "empty job",
			mutate: func(c *Config) { c.Job = " " },
			sev:    SeverityError, path: "job", msg: "must not be empty",
		},
		{
			name:   "zero filter column",
			mutate: func(c *Config) { c.Layout.Filter.Column = 0 },
			sev:    SeverityError, path: "layout.filter.column", msg: "1-based",
		},
		{
			name:   "no keywords",
			mutate: func(c *Config) { c.Layout.Filter.Keywords = nil },
			sev:    SeverityError, path: "layout.filter.keywords", msg: "at least one keyword",
		},
		{
			name:   "blank keyword",
			mutate: func(c *Config) { c.Layout.Filter.Keywords = []string{"new", ""} },
			sev:    SeverityError, path: "layout.filter.keywords[1]", msg: "every non-empty row",
		},
		{
			name:   "unknown highlight",
			mutate: func(c *Config) { c.Layout.Restructure.Headers[0].Highlight = "purple" },
			sev:    SeverityError, path: "layout.restructure.headers[0].highlight", msg: "purple",
		},
		{
			name:   "duplicate count target",
			mutate: func(c *Config) { c.Layout.Counts[1].Target = c.Layout.Counts[0].Target },
			sev:    SeverityError, path: "layout.counts[1].target", msg: "already used",
		},
		{
			name:   "empty move",
			mutate: func(c *Config) { c.Layout.Restructure.Move.From = nil },
			sev:    SeverityWarning, path: "layout.restructure.move.from", msg: "skipped",
		},
		{
			name:   "unknown store",
			mutate: func(c *Config) { c.Preset.Kind = "redis" },
			sev:    SeverityWarning, path: "preset.kind", msg: "redis",
		},
		{
			name:   "missing dsn",
			mutate: func(c *Config) { c.Preset.DSN = "" },
			sev:    SeverityError, path: "preset.dsn", msg: "DSN",
		},
		{
			name:   "multi-char comma",
			mutate: func(c *Config) { c.Preset.Comma = ";;" },
			sev:    SeverityError, path: "preset.comma", msg: "single character",
		},
		{
			name:   "date placeholder without layout",
			mutate: func(c *Config) { c.Export.DateLayout = "" },
			sev:    SeverityError, path: "export.date_layout", msg: "{date}",
		},
		{
			name:   "pushgateway without url",
			mutate: func(c *Config) { c.Metrics.Backend = "prometheus"; c.Metrics.PushgatewayURL = "" },
			sev:    SeverityError, path: "metrics.pushgateway_url", msg: "Pushgateway",
		},
		{
			name:   "unknown metrics backend",
			mutate: func(c *Config) { c.Metrics.Backend = "statsd" },
			sev:    SeverityWarning, path: "metrics.backend", msg: "statsd",
		},
		{
			name:   "dropping result column",
			mutate: func(c *Config) { c.Finalize.DropColumns = []int{22} },
			sev:    SeverityWarning, path: "finalize.drop_columns[0]", msg: "Datasheet",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			issues := ValidateConfig(cfg)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

func TestHasErrors(t *testing.T) {
	t.Parallel()

	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatalf("warnings alone are not errors")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatalf("expected HasErrors to be true")
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "job", Message: "boom"}
	if got := iss.Error(); got != "error at job: boom" {
		t.Fatalf("Error() = %q", got)
	}
}
