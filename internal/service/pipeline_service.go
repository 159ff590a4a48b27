package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"indicadores/internal/etl"
	"indicadores/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Pipeline Service: runs, history, scheduling and file watching
// ─────────────────────────────────────────────────────────────

var (
	ErrAlreadyRunning  = errors.New("pipeline is already running")
	ErrShuttingDown    = errors.New("pipeline is shutting down")
	ErrHistoryDisabled = errors.New("run history is disabled")
	ErrNoRun           = errors.New("no pipeline run yet")
)

const runTimeout = 5 * time.Minute

// PipelineService owns the configured job and everything that triggers
// it: direct calls, a cron schedule and a workbook file watcher.
type PipelineService struct {
	engine  *etl.Engine
	job     etl.Job
	runs    *storage.RunStore
	keep    int
	emitter EventEmitter
	log     zerolog.Logger
	guard   runGuard

	mu   sync.RWMutex
	last *etl.RunResult

	// watcher / cron lifecycle
	wmu         sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewPipelineService creates a PipelineService. runs may be nil, which
// disables run history. A nil emitter logs events instead.
func NewPipelineService(
	engine *etl.Engine,
	job etl.Job,
	runs *storage.RunStore,
	emitter EventEmitter,
	log zerolog.Logger,
) *PipelineService {
	if emitter == nil {
		emitter = LogEmitter{Log: log}
	}
	return &PipelineService{
		engine:  engine,
		job:     job,
		runs:    runs,
		emitter: emitter,
		log:     log,
	}
}

// KeepHistory limits the stored history to the newest n runs. Zero keeps
// every run.
func (s *PipelineService) KeepHistory(n int) { s.keep = n }

// Job returns the configured job.
func (s *PipelineService) Job() etl.Job { return s.job }

// ── Run ────────────────────────────────────────────────────

// Run executes the configured job.
func (s *PipelineService) Run(ctx context.Context) (*etl.RunResult, error) {
	return s.RunJob(ctx, s.job)
}

// DryRun executes the configured job without writing any output.
func (s *PipelineService) DryRun(ctx context.Context) (*etl.RunResult, error) {
	job := s.job
	job.DryRun = true
	return s.RunJob(ctx, job)
}

// RunJob executes job synchronously, records it in the history when
// enabled and emits a completion event. Only one run executes at a time.
func (s *PipelineService) RunJob(ctx context.Context, job etl.Job) (*etl.RunResult, error) {
	if err := s.guard.tryAcquire(); err != nil {
		return nil, err
	}
	defer s.guard.release()

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	res, runErr := s.engine.Run(runCtx, job)
	if res == nil {
		return nil, runErr
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	if s.runs != nil {
		if err := s.runs.CreateRun(res); err != nil {
			s.log.Error().Err(err).Str("run", res.ID).Msg("failed to store run history")
		} else if s.keep > 0 {
			if n, err := s.runs.Prune(s.keep); err != nil {
				s.log.Error().Err(err).Msg("failed to prune run history")
			} else if n > 0 {
				s.log.Debug().Int("pruned", n).Msg("run history pruned")
			}
		}
	}

	event := EventCompleted
	if runErr != nil {
		event = EventFailed
	}
	s.emitter.Emit(ctx, event, map[string]any{
		"id":          res.ID,
		"status":      res.Status,
		"sheets":      len(res.Results),
		"validSheets": res.ValidSheets(),
		"rowsWritten": res.RowsWritten(),
		"error":       res.Error,
	})
	return res, runErr
}

// Last returns the result of the most recent run.
func (s *PipelineService) Last() (*etl.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, ErrNoRun
	}
	return s.last, nil
}

// Running reports whether a run is in progress and when it started.
func (s *PipelineService) Running() (bool, time.Time) {
	return s.guard.running()
}

// ── History ────────────────────────────────────────────────

// History returns the most recent stored runs, newest first.
func (s *PipelineService) History(limit int) ([]storage.RunLog, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runs.ListRuns(limit)
}

// RunDetail returns the stored sheets and errors of one run.
func (s *PipelineService) RunDetail(runID string, errorLimit int) ([]storage.SheetLog, []storage.ErrorLog, error) {
	if s.runs == nil {
		return nil, nil, ErrHistoryDisabled
	}
	sheets, err := s.runs.ListSheets(runID)
	if err != nil {
		return nil, nil, err
	}
	errs, err := s.runs.ListErrors(runID, "", errorLimit)
	if err != nil {
		return nil, nil, err
	}
	return sheets, errs, nil
}

// ── Triggers (cron + file watch) ──────────────────────────

// Schedule runs the configured job on a cron expression until Stop.
// A previous schedule is replaced.
func (s *PipelineService) Schedule(ctx context.Context, expr string) error {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		s.log.Info().Str("schedule", expr).Msg("scheduled run starting")
		s.trigger(ctx, "cron")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.cronSched != nil {
		s.cronSched.Stop()
	}
	c.Start()
	s.cronSched = c
	s.log.Info().Str("schedule", expr).Msg("pipeline scheduled")
	return nil
}

// Watch reruns the configured job whenever path is written or recreated.
// Bursts of events within debounce trigger a single run. The watch ends
// on Stop or when ctx is cancelled. A previous watch is replaced.
func (s *PipelineService) Watch(ctx context.Context, path string, debounce time.Duration) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %q: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace the file on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir %q: %w", filepath.Dir(absPath), err)
	}

	s.wmu.Lock()
	s.stopWatcherLocked()
	watchCtx, cancel := context.WithCancel(ctx)
	s.watcher = watcher
	s.watchCancel = cancel
	s.wmu.Unlock()

	go s.watchLoop(watchCtx, watcher, absPath, debounce)
	s.log.Info().Str("path", absPath).Dur("debounce", debounce).Msg("watching workbook")
	return nil
}

func (s *PipelineService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, absPath string, debounce time.Duration) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if p, _ := filepath.Abs(event.Name); p != absPath {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() != nil {
					return
				}
				s.log.Info().Str("path", absPath).Msg("workbook changed")
				s.trigger(ctx, "watch")
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// trigger runs the configured job on behalf of a background trigger.
func (s *PipelineService) trigger(ctx context.Context, by string) {
	if _, err := s.Run(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			s.log.Warn().Str("trigger", by).Msg("run already in progress, skipped")
			return
		}
		if errors.Is(err, ErrShuttingDown) {
			s.log.Debug().Str("trigger", by).Msg("shutting down, run skipped")
			return
		}
		s.log.Error().Err(err).Str("trigger", by).Msg("triggered run failed")
	}
}

// WaitRunning blocks until the in-flight run finishes or ctx is cancelled.
// Used for graceful shutdown: afterwards every run fails with
// ErrShuttingDown.
func (s *PipelineService) WaitRunning(ctx context.Context) error {
	return s.guard.wait(ctx)
}

// Stop tears down the watcher and the scheduler. It is safe to call
// more than once.
func (s *PipelineService) Stop() {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.stopWatcherLocked()
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}

func (s *PipelineService) stopWatcherLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}
