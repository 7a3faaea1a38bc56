// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the learning-engine pipeline.
package types

import (
	"fmt"
	"strings"
)

// KnowledgeLevel is the learner's self-reported familiarity with the topic.
type KnowledgeLevel string

const (
	LevelBeginner     KnowledgeLevel = "Beginner"
	LevelIntermediate KnowledgeLevel = "Intermediate"
	LevelAdvanced     KnowledgeLevel = "Advanced"
)

// ParseKnowledgeLevel maps a case-insensitive name to a KnowledgeLevel.
// "expert" is accepted as an alias for Advanced.
func ParseKnowledgeLevel(s string) (KnowledgeLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "":
		return LevelBeginner, nil
	case "intermediate":
		return LevelIntermediate, nil
	case "advanced", "expert", "advanced/expert":
		return LevelAdvanced, nil
	}
	return "", fmt.Errorf("unknown knowledge level %q: use beginner, intermediate, or advanced", s)
}

// Format is a preferred learning format.
type Format string

const (
	FormatText    Format = "Text"
	FormatVideo   Format = "Video"
	FormatDiagram Format = "Diagram"
	FormatExample Format = "Example"
	FormatAll     Format = "All"
)

// ParseFormat maps a case-insensitive name, singular or plural, to a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, "s")
	switch name {
	case "text":
		return FormatText, nil
	case "video":
		return FormatVideo, nil
	case "diagram":
		return FormatDiagram, nil
	case "example":
		return FormatExample, nil
	case "all":
		return FormatAll, nil
	}
	return "", fmt.Errorf("unknown format %q: use text, video, diagram, example, or all", s)
}

// Query is one learner request. It is built once and not modified afterwards.
type Query struct {
	Topic     string         `json:"topic" yaml:"topic"`
	Objective string         `json:"objective" yaml:"objective"`
	Level     KnowledgeLevel `json:"knowledge_level" yaml:"knowledge_level"`
	Formats   []Format       `json:"formats" yaml:"formats"`
}

// NewQuery validates its inputs and returns a Query holding the canonical
// level and formats, whatever case or plural form they arrived in. An
// empty format list means All.
func NewQuery(topic, objective string, level KnowledgeLevel, formats []Format) (Query, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Query{}, fmt.Errorf("topic is required")
	}
	lvl, err := ParseKnowledgeLevel(string(level))
	if err != nil {
		return Query{}, err
	}
	seen := make(map[Format]bool)
	var fs []Format
	for _, f := range formats {
		pf, err := ParseFormat(string(f))
		if err != nil {
			return Query{}, err
		}
		if !seen[pf] {
			seen[pf] = true
			fs = append(fs, pf)
		}
	}
	if len(fs) == 0 {
		fs = []Format{FormatAll}
	}
	return Query{
		Topic:     topic,
		Objective: strings.TrimSpace(objective),
		Level:     lvl,
		Formats:   fs,
	}, nil
}

// Wants reports whether the query asked for format f, directly or via All.
func (q Query) Wants(f Format) bool {
	for _, g := range q.Formats {
		if g == f || g == FormatAll {
			return true
		}
	}
	return false
}

// Text derives the natural-language request used for retrieval and
// substituted into the prompt.
func (q Query) Text() string {
	names := make([]string, len(q.Formats))
	for i, f := range q.Formats {
		names[i] = strings.ToLower(string(f))
	}
	objective := q.Objective
	if objective == "" {
		objective = q.Topic
	}
	return fmt.Sprintf("I'm a %s learner interested in '%s'. My goal is to learn about %s, and I prefer learning through %s.",
		strings.ToLower(string(q.Level)), q.Topic, objective, strings.Join(names, ", "))
}
