package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("review_sheet",
		mcp.WithPromptDescription("Review the validation errors of one sheet and propose corrections to the workbook"),
		mcp.WithArgument("sheet",
			mcp.ArgumentDescription("Canonical sheet name, e.g. desercion"),
			mcp.RequiredArgument(),
		),
	), s.handleReviewSheetPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("indicator_brief",
		mcp.WithPromptDescription("Write a short brief on one clean indicator dataset"),
		mcp.WithArgument("dataset",
			mcp.ArgumentDescription("Dataset name, e.g. seguridad"),
			mcp.RequiredArgument(),
		),
	), s.handleIndicatorBriefPrompt)
}

func (s *Server) handleReviewSheetPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sheet := req.Params.Arguments["sheet"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review validation errors of %s", sheet),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Review the sheet "%s" of the indicator workbook. Follow these steps:

1. Call run_pipeline with dryRun=true so the report reflects the current workbook
2. Call validation_summary with sheet="%s" to see the rejected rows
3. Call list_schemas and find the schema of "%s" to read each field's type and bounds
4. For every error, say which cell is wrong and what value would pass

Rows are numbered from 0 among the data rows, below the header row.`, sheet, sheet, sheet),
				},
			},
		},
	}, nil
}

func (s *Server) handleIndicatorBriefPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Arguments["dataset"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Brief on %s", name),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write a short brief, in Spanish, on the indicator dataset "%s":

1. Call read_dataset with name="%s" and no limit
2. Describe what each column measures
3. Highlight the largest values and any notable trend
4. Keep it under 200 words`, name, name),
				},
			},
		},
	}, nil
}
