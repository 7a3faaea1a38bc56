//go:build mage

package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Run groups targets that drive the built CLI.
type Run mg.Namespace

// Report builds the CLI and writes a report for topic to output/reports/,
// with a run record in output/runs/.
func (Run) Report(topic string) error {
	mg.Deps(Build, Init)
	stamp := time.Now().Format("20060102-150405")
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "-")
	return sh.RunV(filepath.Join(binDir, binName), "report",
		"--topic", topic,
		"--out", filepath.Join("output", "reports", name+"-"+stamp+".md"),
		"--record", filepath.Join("output", "runs", name+"-"+stamp+".yaml"),
	)
}

// Fetch builds the CLI and lists what each source returns for topic.
func (Run) Fetch(topic string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "fetch", "--topic", topic)
}

// Collections lists the collections in the local store.
func (Run) Collections() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "index", "list")
}
