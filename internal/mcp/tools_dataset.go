package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"indicadores/internal/etl"
)

func (s *Server) registerDatasetTools() {
	s.mcp.AddTool(mcp.NewTool("list_datasets",
		mcp.WithDescription("List the clean datasets available in the output directory"),
	), s.handleListDatasets)

	s.mcp.AddTool(mcp.NewTool("read_dataset",
		mcp.WithDescription("Read rows of a clean dataset written by the pipeline"),
		mcp.WithString("name", mcp.Description("Dataset name, e.g. desercion"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to return (default 20)")),
	), s.handleReadDataset)
}

func (s *Server) handleListDatasets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.dataset.Names()
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return jsonResult(names)
}

func (s *Server) handleReadDataset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	t, err := s.dataset.Get(name)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return jsonResult(datasetPage(t, intArg(req.GetArguments(), "limit", 20)))
}

type datasetView struct {
	Name    string           `json:"name"`
	Columns []string         `json:"columns"`
	Total   int              `json:"total"`
	Rows    []map[string]any `json:"rows"`
}

func datasetPage(t *etl.Table, limit int) datasetView {
	if limit <= 0 || limit > len(t.Records) {
		limit = len(t.Records)
	}
	rows := make([]map[string]any, limit)
	for i := range rows {
		rows[i] = t.Records[i].Data
	}
	return datasetView{Name: t.Name, Columns: t.Columns, Total: len(t.Records), Rows: rows}
}
