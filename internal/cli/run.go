package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"indicadores/internal/dataset"
	"indicadores/internal/etl"
	"indicadores/internal/schemas"
)

var errStrict = errors.New("strict mode: not every check passed")

var (
	dryRun      bool
	sheetFilter string
	strict      bool

	verifyStrict bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read, validate and write the clean sheets once",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := loadApp(cmd, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, shutdown(a)) }()

		job := a.Pipeline.Job()
		job.DryRun = dryRun
		job.SourceCfg = copyConfig(job.SourceCfg)
		if sheetFilter != "" {
			job.SourceCfg["sheets"] = sheetFilter
		}

		res, runErr := a.Pipeline.RunJob(cmd.Context(), job)
		if res != nil {
			fmt.Fprint(cmd.OutOrStdout(), renderRun(res))
		}
		if runErr != nil {
			return runErr
		}
		if strict && res.ValidSheets() < len(res.Results) {
			return errStrict
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every expected clean file exists and has rows",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := loadApp(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, shutdown(a)) }()

		checks := a.Dataset.Verify(a.Expectations())
		fmt.Fprint(cmd.OutOrStdout(), renderChecks(checks))
		if verifyStrict && !allOK(checks) {
			return errStrict
		}
		return nil
	},
}

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the entity schemas and their fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), renderSchemas(schemas.Default()))
		return nil
	},
}

func copyConfig(cfg etl.SourceConfig) etl.SourceConfig {
	out := make(etl.SourceConfig, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

func allOK(checks []dataset.Check) bool {
	for _, c := range checks {
		if !c.OK() {
			return false
		}
	}
	return true
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate only, write nothing")
	runCmd.Flags().StringVar(&sheetFilter, "sheets", "", "Comma-separated sheets to read (default: all)")
	runCmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any sheet has errors")
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false, "Exit with an error when any file is missing or empty")
}
