package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
	"github.com/yourusername/ytdlp-api-go/internal/infrastructure"
)

// defaultOutputTemplate names downloaded files when the request does not
// say otherwise.
const defaultOutputTemplate = "%(title)s [%(id)s].%(ext)s"

// Orchestrator accepts download requests, spawns one subprocess per job and
// keeps the registry current by parsing subprocess output. Submission is
// asynchronous: callers get the job key back immediately and poll status.
type Orchestrator struct {
	registry *JobRegistry
	runner   domain.ToolRunner
	store    *ConfigStore
	history  domain.HistoryRepository
	logger   *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewOrchestrator wires the orchestrator. history may be nil when durable
// records are not wanted (tests).
func NewOrchestrator(registry *JobRegistry, runner domain.ToolRunner, store *ConfigStore, history domain.HistoryRepository, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		registry: registry,
		runner:   runner,
		store:    store,
		history:  history,
		logger:   logger,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Registry exposes the live job view for status queries.
func (o *Orchestrator) Registry() *JobRegistry {
	return o.registry
}

// Probe fetches available formats for a URL without downloading anything.
func (o *Orchestrator) Probe(ctx context.Context, url string) (*domain.VideoInfo, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrValidation)
	}
	return o.runner.Probe(ctx, url)
}

// Submit validates the request, claims its key and starts the download in
// the background. The returned key is the handle for status polling.
func (o *Orchestrator) Submit(req *domain.DownloadRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	downloadDir := o.store.DownloadDir()
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	outputTemplate := ResolveOutputTemplate(req.OutputTemplate, downloadDir)

	key := req.Key()

	// The closed check, key claim and counter increment share one critical
	// section with Shutdown's closed flag: either the monitor is counted
	// before Wait starts, or the submission is rejected.
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", fmt.Errorf("server is shutting down")
	}
	if err := o.registry.Register(key); err != nil {
		o.mu.Unlock()
		return "", err
	}
	o.wg.Add(1)
	o.mu.Unlock()

	o.logger.Info("Download accepted",
		zap.String("url", key),
		zap.String("format_id", req.FormatID),
		zap.String("output_template", outputTemplate))

	go o.monitor(key, req, outputTemplate)

	return key, nil
}

// monitor supervises one subprocess from spawn to terminal state. It is
// the only writer of the job's registry entry.
func (o *Orchestrator) monitor(key string, req *domain.DownloadRequest, outputTemplate string) {
	defer o.wg.Done()

	proc, err := o.runner.Start(o.baseCtx, req, outputTemplate)
	if err != nil {
		o.logger.Error("Failed to start downloader", zap.String("url", key), zap.Error(err))
		o.finish(key, req.FormatID, func(s *domain.JobState) {
			s.MarkFailed(fmt.Sprintf("failed to start downloader: %v", err))
		})
		return
	}

	o.registry.Update(key, func(s *domain.JobState) { s.MarkDownloading() })

	for line := range proc.Lines() {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		o.registry.AppendOutput(key, trimmed)

		upd, ok := infrastructure.ParseLine(trimmed)
		if !ok {
			continue
		}
		switch upd.Kind {
		case infrastructure.UpdateProgress, infrastructure.UpdateAlreadyDownloaded:
			o.registry.Update(key, func(s *domain.JobState) {
				if upd.HasPercent {
					s.ApplyProgress(upd.Percent, upd.Speed, upd.ETA)
				} else {
					s.ApplyProgress(-1, upd.Speed, upd.ETA)
				}
			})
		case infrastructure.UpdatePostProcessing:
			o.registry.Update(key, func(s *domain.JobState) { s.MarkPostProcessing() })
		}
	}

	if err := proc.Wait(); err != nil {
		// The retained output tail is the diagnostic source; the exit
		// error is the fallback when the tool said nothing useful.
		msg := lastErrorLine(o.registry.Tail(key))
		if msg == "" {
			msg = err.Error()
		}
		o.logger.Warn("Download failed", zap.String("url", key), zap.String("reason", msg))
		o.finish(key, req.FormatID, func(s *domain.JobState) { s.MarkFailed(msg) })
		return
	}

	o.logger.Info("Download completed", zap.String("url", key))
	o.finish(key, req.FormatID, func(s *domain.JobState) { s.MarkCompleted() })
}

// lastErrorLine returns the most recent ERROR line of a job's output tail.
func lastErrorLine(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "ERROR") {
			return lines[i]
		}
	}
	return ""
}

// finish applies the terminal transition and writes the durable record.
// The state for the record is captured inside the update closure: once the
// entry turns terminal its key is up for re-registration, so reading the
// registry again after the transition could observe a different job.
func (o *Orchestrator) finish(key, formatID string, transition func(*domain.JobState)) {
	var state domain.JobState
	applied := false
	o.registry.Update(key, func(s *domain.JobState) {
		transition(s)
		state = *s
		applied = true
	})

	if !applied || o.history == nil {
		return
	}
	record := domain.NewDownloadRecord(key, formatID, state)
	if err := o.history.Create(record); err != nil {
		o.logger.Error("Failed to record download history", zap.String("url", key), zap.Error(err))
	}
}

// Shutdown stops accepting submissions, kills running subprocesses and
// waits for their monitors to finish, bounded by ctx. Killed jobs end up
// failed, which is what a status poll after restart should see.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out with %d active jobs: %w", o.registry.ActiveCount(), ctx.Err())
	}
}

// ResolveOutputTemplate decides where the tool writes. An empty template
// gets the default name under dir, an absolute template is honored
// unchanged, and a relative one is anchored under dir.
func ResolveOutputTemplate(template, dir string) string {
	template = strings.TrimSpace(template)
	if template == "" {
		return filepath.Join(dir, defaultOutputTemplate)
	}
	if filepath.IsAbs(template) {
		return template
	}
	return filepath.Join(dir, template)
}
