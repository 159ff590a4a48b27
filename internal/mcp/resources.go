package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	schemasURI     = "indicadores://schemas"
	reportURI      = "indicadores://report/last"
	datasetURIBase = "indicadores://dataset/"
)

func (s *Server) registerResources() {
	// ── indicadores://schemas ──────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		schemasURI,
		"Entity Schemas",
		mcp.WithMIMEType("application/json"),
	), s.handleSchemasResource)

	// ── indicadores://report/last ──────────────────────
	s.mcp.AddResource(mcp.NewResource(
		reportURI,
		"Last Processing Report",
		mcp.WithMIMEType("text/plain"),
	), s.handleReportResource)

	// ── indicadores://dataset/{name} ───────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			datasetURIBase+"{name}",
			"Clean Dataset",
		),
		s.handleDatasetResource,
	)
}

func (s *Server) handleSchemasResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.schemaSummaries(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemasURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReportResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res, err := s.lastRun()
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      reportURI,
			MIMEType: "text/plain",
			Text:     res.Summary(),
		},
	}, nil
}

func (s *Server) handleDatasetResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	name := strings.TrimPrefix(uri, datasetURIBase)
	if name == "" || name == uri {
		return nil, fmt.Errorf("could not extract dataset name from URI: %s", uri)
	}
	t, err := s.dataset.Get(name)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(datasetPage(t, 0), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
