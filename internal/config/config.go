// Package config defines the configuration model for the PIM formatter.
//
// Everything that the original workflow hard-coded lives here: the 1-based
// column positions of the PIM and part-data sheets, the filter keywords, the
// preset store location and the export naming. Default returns the layout
// of the current PIM issue report; a YAML (or JSON) file may override any
// subset of it.
//
// Example (trimmed):
//
//	job: pim-weekly
//	layout:
//	  filter:
//	    column: 8
//	    keywords: [new, check updates, check value]
//	  lookup:
//	    key: 16
//	    result: 22
//	preset:
//	  kind: sqlite
//	  dsn: preset_db.sqlite
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Job labels metrics and logs for a run.
	Job string `yaml:"job"`

	Layout   Layout         `yaml:"layout"`
	Part     PartOptions    `yaml:"part"`
	Preset   PresetStore    `yaml:"preset"`
	Export   Export         `yaml:"export"`
	Finalize Finalize       `yaml:"finalize"`
	Metrics  MetricsOptions `yaml:"metrics"`
}

// Layout is the column contract of the PIM and part-data sheets. All
// positions are 1-based spreadsheet columns (A=1).
type Layout struct {
	Restructure Restructure `yaml:"restructure"`
	Filter      Filter      `yaml:"filter"`
	Keys        Keys        `yaml:"keys"`
	Part        PartLayout  `yaml:"part"`
	Lookup      Lookup      `yaml:"lookup"`
	Counts      []Count     `yaml:"counts"`

	// PresetKey is the preset-table column matched against derived keys.
	PresetKey int `yaml:"preset_key"`
}

// Restructure lists the structural edits applied to the PIM sheet, in the
// order they run.
type Restructure struct {
	Move        ColumnMove   `yaml:"move"`
	Copy        ColumnMove   `yaml:"copy"`
	Placeholder Placeholder  `yaml:"placeholder"`
	Spacer      Spacer       `yaml:"spacer"`
	Headers     []HeaderRule `yaml:"headers"`
}

// ColumnMove captures the From columns and pastes them side by side starting
// at To.
type ColumnMove struct {
	From []int `yaml:"from"`
	To   int   `yaml:"to"`
}

// Placeholder replaces Column with an empty column headed Label.
type Placeholder struct {
	Column int    `yaml:"column"`
	Label  string `yaml:"label"`
}

// Spacer inserts Count empty columns at At.
type Spacer struct {
	At    int `yaml:"at"`
	Count int `yaml:"count"`
}

// HeaderRule sets a header cell. An empty Label keeps the current text.
// Highlight is one of "key", "result", "alert" or "".
type HeaderRule struct {
	Column    int    `yaml:"column"`
	Label     string `yaml:"label"`
	Highlight string `yaml:"highlight"`
}

// Filter selects qualifying rows.
type Filter struct {
	Column   int      `yaml:"column"`
	Keywords []string `yaml:"keywords"`
}

// KeyRule writes Left+Right (text concatenation) into Target.
type KeyRule struct {
	Target int `yaml:"target"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// Keys are the two derived keys written for qualifying rows.
type Keys struct {
	Primary   KeyRule `yaml:"primary"`
	Secondary KeyRule `yaml:"secondary"`
}

// PartLayout is the column contract of the part-data sheet. Key.Target is
// inserted as a new column before the concatenation; First and Second are
// positions after that insertion.
type PartLayout struct {
	Key    KeyRule `yaml:"key"`
	First  int     `yaml:"first"`
	Second int     `yaml:"second"`

	// Selector picks Second over First when First contains it
	// (case-insensitive).
	Selector string `yaml:"selector"`
}

// Lookup names the PIM column whose value is resolved against the part index
// and the column the resolved value is written to.
type Lookup struct {
	Key    int `yaml:"key"`
	Result int `yaml:"result"`
}

// Count tallies Source over qualifying rows into Target.
type Count struct {
	Source int `yaml:"source"`
	Target int `yaml:"target"`
}

// PartOptions controls side effects on the part-data file.
type PartOptions struct {
	// SkipWriteBack leaves the part-data workbook untouched on disk instead
	// of saving it with the derived key column.
	SkipWriteBack bool `yaml:"skip_write_back"`
}

// PresetStore selects where the preset reference table is cached.
type PresetStore struct {
	// Kind is "sqlite", "postgres" or "mssql".
	Kind string `yaml:"kind"`
	DSN  string `yaml:"dsn"`
	// Comma is the delimiter used when importing a .csv preset source.
	Comma string `yaml:"comma"`
}

// Export controls output naming. {date} in a file name is replaced with the
// run date formatted with DateLayout.
type Export struct {
	PresetFile    string `yaml:"preset_file"`
	ProcessedFile string `yaml:"processed_file"`
	DateLayout    string `yaml:"date_layout"`
}

// Name expands {date} in pattern with t.
func (e Export) Name(pattern string, t time.Time) string {
	return strings.ReplaceAll(pattern, "{date}", t.Format(e.DateLayout))
}

// Finalize holds the optional clean-up edits the web variant of the tool
// applied after counting.
type Finalize struct {
	DropColumns []int `yaml:"drop_columns"`
	AutoFilter  bool  `yaml:"auto_filter"`
	FitHeaders  bool  `yaml:"fit_headers"`
	// Borders draws a thin border around every non-blank cell.
	Borders bool `yaml:"borders"`
}

// MetricsOptions selects the metrics backend: "none", "prometheus"
// (Pushgateway) or "datadog" (DogStatsD).
type MetricsOptions struct {
	Backend        string `yaml:"backend"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	DogStatsDAddr  string `yaml:"dogstatsd_addr"`
}

// Default returns the layout of the current PIM issue report.
func Default() Config {
	return Config{
		Job:    "pimformat",
		Layout: DefaultLayout(),
		Preset: PresetStore{
			Kind:  "sqlite",
			DSN:   "preset_db.sqlite",
			Comma: ",",
		},
		Export: Export{
			PresetFile:    "DK Preset_{date}.xlsx",
			ProcessedFile: "PIM_Processed_{date}.xlsx",
			DateLayout:    "02_01_2006",
		},
		Metrics: MetricsOptions{
			Backend:        "none",
			PushgatewayURL: "http://localhost:9091",
			DogStatsDAddr:  "127.0.0.1:8125",
		},
	}
}

// DefaultLayout is the hard-wired column contract of the PIM report
// (H=8 filter, N/O → P key, L/M → U key, V result) and the part-data sheet
// (C/D → E key, Q/S values).
func DefaultLayout() Layout {
	return Layout{
		Restructure: Restructure{
			Move:        ColumnMove{From: []int{14, 15}, To: 18},
			Copy:        ColumnMove{From: []int{3, 4, 5, 6}, To: 14},
			Placeholder: Placeholder{Column: 16, Label: "XXXXX"},
			Spacer:      Spacer{At: 18, Count: 5},
			Headers: []HeaderRule{
				{Column: 18, Label: "S", Highlight: "key"},
				{Column: 19, Label: "N", Highlight: "key"},
				{Column: 20, Label: "D", Highlight: "key"},
				{Column: 22, Label: "Datasheet", Highlight: "result"},
				{Column: 14, Highlight: "alert"},
				{Column: 16, Highlight: "alert"},
			},
		},
		Filter: Filter{
			Column:   8,
			Keywords: []string{"new", "check updates", "check value"},
		},
		Keys: Keys{
			Primary:   KeyRule{Target: 16, Left: 14, Right: 15},
			Secondary: KeyRule{Target: 21, Left: 12, Right: 13},
		},
		Part: PartLayout{
			Key:      KeyRule{Target: 5, Left: 3, Right: 4},
			First:    17,
			Second:   19,
			Selector: "nod",
		},
		Lookup: Lookup{Key: 16, Result: 22},
		Counts: []Count{
			{Source: 14, Target: 18},
			{Source: 16, Target: 19},
			{Source: 22, Target: 20},
		},
		PresetKey: 5,
	}
}

// Load reads a YAML (or JSON) config file over Default. Unknown keys are an
// error so typos in column names do not silently fall back to defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes b over Default.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// Marshal renders cfg as YAML, e.g. for `pimformat validate --print`.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
