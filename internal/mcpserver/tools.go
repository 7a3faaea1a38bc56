// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/learning-engine/pkg/types"
)

const defaultK = 10

// ReportInput is the input schema for generate_learning_report.
type ReportInput struct {
	Topic          string   `json:"topic" jsonschema:"the subject to learn about"`
	Objective      string   `json:"objective,omitempty" jsonschema:"what the learner wants to achieve"`
	KnowledgeLevel string   `json:"knowledge_level,omitempty" jsonschema:"beginner, intermediate or advanced (default beginner)"`
	Formats        []string `json:"formats,omitempty" jsonschema:"preferred formats: text, video, diagram, example or all (default all)"`
}

// ReportOutput is the output schema for generate_learning_report.
type ReportOutput struct {
	Markdown   string              `json:"markdown"`
	Collection string              `json:"collection"`
	Warnings   []types.Warning     `json:"warnings,omitempty"`
	Sources    []types.SourceCount `json:"sources,omitempty"`
}

// RetrieveInput is the input schema for retrieve_passages.
type RetrieveInput struct {
	Collection string `json:"collection" jsonschema:"collection to search"`
	Query      string `json:"query" jsonschema:"text to match passages against"`
	K          int    `json:"k,omitempty" jsonschema:"maximum number of passages (default 10)"`
}

// RetrieveOutput is the output schema for retrieve_passages.
type RetrieveOutput struct {
	Passages []string `json:"passages"`
	Count    int      `json:"count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_learning_report",
		Description: "Fetch material on a topic from public sources and write a structured markdown learning report",
	}, s.handleReport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_passages",
		Description: "Return the passages of an existing collection most similar to a query",
	}, s.handleRetrieve)
}

func (s *Server) handleReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReportInput,
) (*mcp.CallToolResult, ReportOutput, error) {
	q, err := queryFromInput(input)
	if err != nil {
		return nil, ReportOutput{}, err
	}
	report, err := s.ports.Reporter.Run(ctx, q)
	if err != nil {
		return nil, ReportOutput{}, err
	}
	return nil, ReportOutput{
		Markdown:   report.Markdown,
		Collection: report.Collection,
		Warnings:   report.Warnings,
		Sources:    report.Sources,
	}, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.Collection == "" || input.Query == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("collection and query are required")
	}
	k := input.K
	if k <= 0 {
		k = s.ports.DefaultK
	}
	if k <= 0 {
		k = defaultK
	}
	passages, err := s.ports.Retriever.Retrieve(ctx, input.Collection, input.Query, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	if passages == nil {
		passages = []string{}
	}
	return nil, RetrieveOutput{Passages: passages, Count: len(passages)}, nil
}

func queryFromInput(input ReportInput) (types.Query, error) {
	level, err := types.ParseKnowledgeLevel(input.KnowledgeLevel)
	if err != nil {
		return types.Query{}, err
	}
	formats := make([]types.Format, 0, len(input.Formats))
	for _, f := range input.Formats {
		pf, err := types.ParseFormat(f)
		if err != nil {
			return types.Query{}, err
		}
		formats = append(formats, pf)
	}
	return types.NewQuery(input.Topic, input.Objective, level, formats)
}
