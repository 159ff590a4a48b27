// Package app wires configuration, storage, the pipeline and its
// triggers into one runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"indicadores/internal/config"
	"indicadores/internal/dataset"
	"indicadores/internal/etl"
	"indicadores/internal/etl/destinations"
	_ "indicadores/internal/etl/sources" // register all sources via init()
	"indicadores/internal/schemas"
	"indicadores/internal/service"
	"indicadores/internal/storage"
)

// App holds every long-lived component of one process.
type App struct {
	Config   config.Config
	Log      zerolog.Logger
	Schemas  *schemas.Registry
	Dataset  *dataset.Store
	Pipeline *service.PipelineService

	history *storage.DB
	closers []io.Closer
}

// New builds the application from cfg. Extra sinks are opened here but
// only contacted when a run prepares them.
func New(cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Log:     log,
		Schemas: schemas.Default(),
		Dataset: dataset.NewStore(cfg.OutputDir),
	}

	dests := []etl.Destination{etl.NewCSVWriter(cfg.OutputDir)}
	for i, sc := range cfg.Sinks {
		d, err := openSink(sc)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		dests = append(dests, d)
		if c, ok := d.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}

	var runs *storage.RunStore
	if cfg.HistoryDB != "" {
		db, err := storage.New(cfg.HistoryDB)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.history = db
		runs = storage.NewRunStore(db)
	}

	engine := &etl.Engine{
		Validator:    etl.NewValidator(a.Schemas, log.With().Str("component", "validator").Logger()),
		Destinations: dests,
		Log:          log.With().Str("component", "engine").Logger(),
	}
	a.Pipeline = service.NewPipelineService(engine, Job(cfg), runs, nil, log.With().Str("component", "pipeline").Logger())
	a.Pipeline.KeepHistory(cfg.HistoryKeep)
	return a, nil
}

// Job translates the configuration into a pipeline job.
func Job(cfg config.Config) etl.Job {
	src := etl.SourceConfig{}
	switch cfg.SourceType {
	case "csv_dir":
		src["dir"] = cfg.Workbook
	default:
		src["filePath"] = cfg.Workbook
	}
	return etl.Job{
		SourceType:   cfg.SourceType,
		SourceCfg:    src,
		WritePartial: cfg.WritePartial,
	}
}

func openSink(sc config.SinkConfig) (etl.Destination, error) {
	switch sc.Type {
	case "sql":
		return destinations.OpenSQL(sc.Driver, sc.DSN, sc.TablePrefix)
	case "mongo":
		return destinations.OpenMongo(sc.URI, sc.Database)
	default:
		return nil, fmt.Errorf("unknown sink type %q", sc.Type)
	}
}

// Expectations lists the clean output of every schema, accepting the
// legacy sheet names as file names too.
func (a *App) Expectations() []dataset.Expectation {
	var out []dataset.Expectation
	for _, sheet := range a.Schemas.Sheets() {
		out = append(out, dataset.Expectation{
			Name:  sheet,
			Files: append([]string{sheet}, a.Schemas.Aliases(sheet)...),
		})
	}
	return out
}

// Shutdown stops the triggers, waits for an in-flight run and closes
// storage and sinks.
func (a *App) Shutdown(ctx context.Context) error {
	a.Pipeline.Stop()
	err := a.Pipeline.WaitRunning(ctx)
	return errors.Join(err, a.close())
}

func (a *App) close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	if a.history != nil {
		errs = append(errs, a.history.Close())
		a.history = nil
	}
	return errors.Join(errs...)
}
