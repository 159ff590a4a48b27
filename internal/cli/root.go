// Package cli holds the indicadores command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"indicadores/internal/app"
	"indicadores/internal/config"
	"indicadores/internal/logger"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath   string
	workbookPath string
	logLevel     string
	logFormat    string
)

var rootCmd = &cobra.Command{
	Use:          "indicadores",
	Short:        "Clean and validate the socioeconomic indicator workbook",
	Long:         `indicadores reads the indicator workbook, validates every sheet against its entity schema and writes one clean CSV per valid sheet.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&workbookPath, "workbook", "w", "", "Workbook path, overrides the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json")

	rootCmd.AddCommand(runCmd, verifyCmd, schemasCmd, historyCmd, showCmd, watchCmd, mcpCmd)
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if workbookPath != "" {
		cfg.Workbook = workbookPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, cfg.Validate()
}

// loadApp builds the application. Info logs go to logOut, errors to the
// command's stderr.
func loadApp(cmd *cobra.Command, logOut io.Writer) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, logOut, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return app.New(cfg, log)
}

func shutdown(a *app.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Shutdown(ctx)
}
