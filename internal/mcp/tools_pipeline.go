package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"indicadores/internal/etl"
	"indicadores/internal/service"
)

func (s *Server) registerPipelineTools() {
	s.mcp.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("DESTRUCTIVE: Read the workbook, validate every sheet and rewrite the clean outputs. Returns the processing report."),
		mcp.WithBoolean("dryRun", mcp.Description("Validate only, write nothing (default false)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRunPipeline)

	s.mcp.AddTool(mcp.NewTool("validation_summary",
		mcp.WithDescription("Validation report of the last run, for all sheets or one sheet"),
		mcp.WithString("sheet", mcp.Description("Canonical sheet name (optional)")),
	), s.handleValidationSummary)

	s.mcp.AddTool(mcp.NewTool("sheet_info",
		mcp.WithDescription("Rows, columns and null counts of every sheet read in the last run"),
	), s.handleSheetInfo)

	s.mcp.AddTool(mcp.NewTool("list_schemas",
		mcp.WithDescription("List the entity schemas with their fields, constraints and sheet aliases"),
	), s.handleListSchemas)

	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List available source types with their configuration fields"),
	), s.handleListSources)

	s.mcp.AddTool(mcp.NewTool("run_history",
		mcp.WithDescription("List recent pipeline runs, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum runs to return (default 20)")),
	), s.handleRunHistory)
}

func (s *Server) handleRunPipeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job := s.pipeline.Job()
	job.DryRun = boolArg(req.GetArguments(), "dryRun", false)

	res, err := s.pipeline.RunJob(ctx, job)
	if res == nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	if s.dataset != nil && !job.DryRun {
		s.dataset.Reload()
	}
	// A failed run still carries a report worth returning.
	return textResult(res.Summary()), nil
}

func (s *Server) handleValidationSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.lastRun()
	if err != nil {
		return nil, err
	}
	sheet := req.GetString("sheet", "")
	if sheet == "" {
		return textResult(etl.Summary(res.Results)), nil
	}
	r := res.Result(etl.CanonicalColumn(sheet))
	if r == nil {
		return nil, fmt.Errorf("sheet %q was not validated in the last run", sheet)
	}
	return textResult(r.ErrorSummary()), nil
}

func (s *Server) handleSheetInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.lastRun()
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{
		"sheets":  res.Sheets,
		"skipped": res.Skipped,
	})
}

type schemaSummary struct {
	Entity  string      `json:"entity"`
	Sheet   string      `json:"sheet"`
	Aliases []string    `json:"sheetAliases,omitempty"`
	Fields  []etl.Field `json:"fields"`
}

func (s *Server) schemaSummaries() []schemaSummary {
	all := s.schemas.Schemas()
	out := make([]schemaSummary, len(all))
	for i, sc := range all {
		out[i] = schemaSummary{
			Entity:  sc.Entity,
			Sheet:   sc.Sheet,
			Aliases: s.schemas.Aliases(sc.Sheet),
			Fields:  sc.Fields,
		}
	}
	return out
}

func (s *Server) handleListSchemas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.schemaSummaries())
}

func (s *Server) handleListSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(etl.ListSources())
}

func (s *Server) handleRunHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.pipeline.History(intArg(req.GetArguments(), "limit", 20))
	if errors.Is(err, service.ErrHistoryDisabled) {
		return textResult("Run history is disabled (set history_db in the config)"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return jsonResult(runs)
}

// lastRun returns the result of the last run in this process.
func (s *Server) lastRun() (*etl.RunResult, error) {
	res, err := s.pipeline.Last()
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, service.ErrNoRun) {
		return nil, err
	}
	return nil, fmt.Errorf("no run yet, call run_pipeline first")
}
