// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcpserver exposes the learning pipeline as MCP tools so an
// assistant can request reports and query existing collections.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// ErrMissingReporter is returned when no report runner is provided.
var ErrMissingReporter = errors.New("mcpserver: reporter is required")

// ErrMissingRetriever is returned when no retriever is provided.
var ErrMissingRetriever = errors.New("mcpserver: retriever is required")

// Reporter runs the full pipeline. *pipeline.Orchestrator satisfies it.
type Reporter interface {
	Run(ctx context.Context, q types.Query) (*types.Report, error)
}

// Retriever returns passages from an existing collection.
// *index.Retriever satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, collection, query string, k int) ([]string, error)
}

// Ports are the collaborators the tools call.
type Ports struct {
	Reporter  Reporter
	Retriever Retriever
	// DefaultK is used when retrieve_passages is called without k.
	DefaultK int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Reporter == nil {
		return ErrMissingReporter
	}
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}

// Server wraps the MCP server and its tools.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// New creates a server with both tools registered.
func New(ports *Ports, version string) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "learning-engine", Version: version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
