package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	schedule  string
	skipFirst bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run whenever the workbook changes, and on an optional schedule",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := loadApp(cmd, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, shutdown(a)) }()

		ctx := cmd.Context()
		expr := a.Config.Schedule
		if schedule != "" {
			expr = schedule
		}
		watchFile := a.Config.SourceType == "xlsx"
		if !watchFile && expr == "" {
			return fmt.Errorf("source %q cannot be watched, set a schedule", a.Config.SourceType)
		}

		if !skipFirst {
			if res, err := a.Pipeline.Run(ctx); res != nil {
				fmt.Fprint(cmd.OutOrStdout(), renderRun(res))
			} else if err != nil {
				return err
			}
		}
		if watchFile {
			if err := a.Pipeline.Watch(ctx, a.Config.Workbook, a.Config.Debounce()); err != nil {
				return err
			}
		}
		if expr != "" {
			if err := a.Pipeline.Schedule(ctx, expr); err != nil {
				return err
			}
		}

		<-ctx.Done()
		a.Log.Info().Msg("shutting down")
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression for periodic runs, overrides the config")
	watchCmd.Flags().BoolVar(&skipFirst, "skip-first", false, "Do not run once before watching")
}
