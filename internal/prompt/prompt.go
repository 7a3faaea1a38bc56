// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt assembles the report-generation prompt from the learner's
// query and the retrieved passages, and checks generated reports for the
// required sections.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Sections are the report sections the model must produce, in order.
var Sections = []string{
	"Title",
	"Introduction",
	"Learning Objectives",
	"Concept Breakdown",
	"Visual Aids Description",
	"Examples and Use Cases",
	"Citations & References",
	"Recommended Additional Resources",
	"Conclusion and Next Steps",
}

// NoContentStatement replaces the context when nothing was retrieved, so the
// model discloses that the report is not grounded in fetched material.
const NoContentStatement = "No educational content was found for this query. " +
	"State this clearly at the start of the Introduction, and mark any material you provide as general background rather than sourced content."

// PassageSeparator joins passages in the context block.
const PassageSeparator = "\n\n"

var reportPromptTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`You are an AI educational assistant. Based on the provided context and query, generate a detailed, well-structured educational report in **markdown** format with the following **exact** sections:

{{range $i, $s := .Sections}}{{inc $i}}. {{$s}}
{{end}}
Use each section name as a markdown heading. Ground the report in the educational content below and cite the sources it names.

Query: {{.Query}}

Educational Content:
{{.Context}}
`))

type promptData struct {
	Sections []string
	Query    string
	Context  string
}

// BuildContext joins passages in the given order until budget runes are
// used. The passage that crosses the budget is cut at the boundary and
// later passages are dropped, so the highest-ranked material survives. A
// budget of zero or less disables truncation. An empty passage list yields
// NoContentStatement.
func BuildContext(passages []string, budget int) string {
	var kept []string
	used := 0
	for _, p := range passages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		cost := len([]rune(p))
		if len(kept) > 0 {
			cost += len(PassageSeparator)
		}
		if budget > 0 && used+cost > budget {
			remaining := budget - used
			if len(kept) > 0 {
				remaining -= len(PassageSeparator)
			}
			if remaining > 0 {
				kept = append(kept, string([]rune(p)[:remaining]))
			}
			break
		}
		kept = append(kept, p)
		used += cost
	}
	if len(kept) == 0 {
		return NoContentStatement
	}
	return strings.Join(kept, PassageSeparator)
}

// Assemble substitutes the query text and context into the report template.
// An empty context is replaced by NoContentStatement.
func Assemble(q types.Query, context string) (string, error) {
	if strings.TrimSpace(context) == "" {
		context = NoContentStatement
	}
	var buf bytes.Buffer
	if err := reportPromptTmpl.Execute(&buf, promptData{
		Sections: Sections,
		Query:    q.Text(),
		Context:  context,
	}); err != nil {
		return "", fmt.Errorf("rendering report prompt: %w", err)
	}
	return buf.String(), nil
}

// MissingSections returns the required sections that have no matching line
// in markdown, in template order. A line matches when, after list numbering
// and heading or emphasis markers are stripped, it starts with the section
// name. Any level-one heading satisfies Title.
func MissingSections(markdown string) []string {
	var lines []string
	hasH1 := false
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			hasH1 = true
		}
		if n := normalizeHeading(line); n != "" {
			lines = append(lines, n)
		}
	}

	var missing []string
	for _, s := range Sections {
		if s == "Title" && hasH1 {
			continue
		}
		want := normalizeHeading(s)
		found := false
		for _, l := range lines {
			if strings.HasPrefix(l, want) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, s)
		}
	}
	return missing
}

// normalizeHeading lowercases line, drops leading markup and numbering,
// spells out "&" and collapses everything that is not a letter or digit to
// single spaces.
func normalizeHeading(line string) string {
	line = strings.TrimLeftFunc(line, func(r rune) bool {
		return r == '#' || r == '*' || r == '_' || r == '.' || r == ')' || unicode.IsDigit(r) || unicode.IsSpace(r)
	})
	line = strings.ReplaceAll(strings.ToLower(line), "&", " and ")
	var b strings.Builder
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
