package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	errorLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the history database",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := loadApp(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, shutdown(a)) }()

		runs, err := a.Pipeline.History(historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderHistory(runs))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the sheets and errors of one stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := loadApp(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, shutdown(a)) }()

		sheets, errs, err := a.Pipeline.RunDetail(args[0], errorLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderRunDetail(args[0], sheets, errs))
		return nil
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the pipeline tools over MCP on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		// stdout carries the protocol, so every log line goes to stderr.
		a, err := loadApp(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, shutdown(a)) }()
		return a.ServeMCP()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list")
	showCmd.Flags().IntVarP(&errorLimit, "errors", "e", 50, "Maximum field errors to list")
}
