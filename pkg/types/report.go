// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Warning is a non-fatal problem observed during a pipeline run.
type Warning struct {
	// Source is the connector the warning concerns; empty for pipeline-level warnings.
	Source  SourceID `json:"source,omitempty" yaml:"source,omitempty"`
	Kind    string   `json:"kind" yaml:"kind"`
	Message string   `json:"message" yaml:"message"`
}

// SourceCount records how many documents one connector contributed.
type SourceCount struct {
	Source    SourceID `json:"source" yaml:"source"`
	Documents int      `json:"documents" yaml:"documents"`
}

// Report is the result of a successful pipeline run. Markdown is the model
// output exactly as returned.
type Report struct {
	Markdown   string        `json:"markdown" yaml:"markdown"`
	Collection string        `json:"collection" yaml:"collection"`
	Warnings   []Warning     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Sources    []SourceCount `json:"sources,omitempty" yaml:"sources,omitempty"`
	Chunks     int           `json:"chunks" yaml:"chunks"`
	Passages   int           `json:"passages" yaml:"passages"`
	Duplicates int           `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}
