package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// fakeProcess replays a scripted transcript as if it were subprocess output.
type fakeProcess struct {
	lines   chan string
	exitErr error
	release chan struct{}
}

func newFakeProcess(transcript []string, exitErr error) *fakeProcess {
	p := &fakeProcess{
		lines:   make(chan string, len(transcript)),
		exitErr: exitErr,
		release: make(chan struct{}),
	}
	for _, line := range transcript {
		p.lines <- line
	}
	close(p.lines)
	close(p.release)
	return p
}

func (p *fakeProcess) Lines() <-chan string { return p.lines }

func (p *fakeProcess) Wait() error {
	<-p.release
	return p.exitErr
}

// fakeRunner hands out scripted processes keyed by URL.
type fakeRunner struct {
	mu       sync.Mutex
	procs    map[string]*fakeProcess
	startErr error
	started  []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{procs: make(map[string]*fakeProcess)}
}

func (r *fakeRunner) script(url string, transcript []string, exitErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[url] = newFakeProcess(transcript, exitErr)
}

func (r *fakeRunner) Probe(ctx context.Context, url string) (*domain.VideoInfo, error) {
	return &domain.VideoInfo{Title: "probe of " + url}, nil
}

func (r *fakeRunner) Start(ctx context.Context, req *domain.DownloadRequest, outputTemplate string) (domain.ToolProcess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return nil, r.startErr
	}
	r.started = append(r.started, outputTemplate)
	proc, ok := r.procs[req.URL]
	if !ok {
		proc = newFakeProcess(nil, nil)
	}
	return proc, nil
}

func newTestOrchestrator(t *testing.T, runner domain.ToolRunner) *Orchestrator {
	t.Helper()
	store, err := LoadConfigStore(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	next := store.Get()
	next.DownloadDirectory = t.TempDir()
	require.NoError(t, store.Update(next))

	orch := NewOrchestrator(NewJobRegistry(), runner, store, nil, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		orch.Shutdown(ctx)
	})
	return orch
}

func waitForStatus(t *testing.T, orch *Orchestrator, key string, want domain.JobStatus) domain.JobState {
	t.Helper()
	var state domain.JobState
	require.Eventually(t, func() bool {
		s, ok := orch.Registry().Snapshot(key)
		if !ok {
			return false
		}
		state = s
		return s.Status == want
	}, 2*time.Second, 5*time.Millisecond, "job %s never reached %s", key, want)
	return state
}

func TestOrchestrator_SuccessfulDownload(t *testing.T) {
	runner := newFakeRunner()
	runner.script("https://example.com/v", []string{
		"[youtube] abc: Downloading webpage",
		"[download] Destination: video [abc].mp4",
		"[download]  25.0% of ~10.00MiB at 2.00MiB/s ETA 00:04",
		"[download]  80.0% of ~10.00MiB at 2.50MiB/s ETA 00:01",
		"[Merger] Merging formats into \"video [abc].mkv\"",
	}, nil)

	orch := newTestOrchestrator(t, runner)

	key, err := orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: "137+140"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v", key)

	state := waitForStatus(t, orch, key, domain.StatusCompleted)
	assert.Equal(t, 100.0, state.Progress)
	assert.Empty(t, state.Error)
	require.NotNil(t, state.EndedAt)
	assert.NotEmpty(t, orch.Registry().Tail(key))
}

func TestOrchestrator_FailedDownloadKeepsDiagnostic(t *testing.T) {
	runner := newFakeRunner()
	runner.script("https://example.com/v", []string{
		"[download]  12.5% of ~10.00MiB at 1.00MiB/s ETA 00:10",
		"ERROR: This video is not available in your country",
	}, errors.New("exit status 1"))

	orch := newTestOrchestrator(t, runner)

	key, err := orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: "best"})
	require.NoError(t, err)

	state := waitForStatus(t, orch, key, domain.StatusFailed)
	assert.Equal(t, "ERROR: This video is not available in your country", state.Error)
	// Progress freezes at the last observed value.
	assert.Equal(t, 12.5, state.Progress)
}

func TestOrchestrator_FailedExitWithoutDiagnosticUsesExitError(t *testing.T) {
	runner := newFakeRunner()
	runner.script("https://example.com/v", nil, errors.New("exit status 101"))

	orch := newTestOrchestrator(t, runner)

	key, err := orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: "best"})
	require.NoError(t, err)

	state := waitForStatus(t, orch, key, domain.StatusFailed)
	assert.Equal(t, "exit status 101", state.Error)
}

func TestOrchestrator_StartFailureMarksFailed(t *testing.T) {
	runner := newFakeRunner()
	runner.startErr = errors.New("executable file not found in $PATH")

	orch := newTestOrchestrator(t, runner)

	key, err := orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: "best"})
	require.NoError(t, err)

	state := waitForStatus(t, orch, key, domain.StatusFailed)
	assert.Contains(t, state.Error, "failed to start downloader")
}

func TestOrchestrator_RejectsDuplicateActiveKey(t *testing.T) {
	runner := newFakeRunner()
	// A process that never finishes until released.
	proc := &fakeProcess{
		lines:   make(chan string),
		release: make(chan struct{}),
	}
	runner.mu.Lock()
	runner.procs["https://example.com/v"] = proc
	runner.mu.Unlock()

	orch := newTestOrchestrator(t, runner)

	_, err := orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: "best"})
	require.NoError(t, err)
	waitForStatus(t, orch, "https://example.com/v", domain.StatusDownloading)

	_, err = orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: "best"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	close(proc.lines)
	close(proc.release)
	waitForStatus(t, orch, "https://example.com/v", domain.StatusCompleted)

	// Terminal entry may be re-submitted.
	_, err = orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: "best"})
	require.NoError(t, err)
}

func TestOrchestrator_RejectsInvalidRequest(t *testing.T) {
	orch := newTestOrchestrator(t, newFakeRunner())

	_, err := orch.Submit(&domain.DownloadRequest{URL: "", FormatID: "best"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: ""})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestOrchestrator_ConcurrentDistinctKeys(t *testing.T) {
	runner := newFakeRunner()
	for i := 0; i < 5; i++ {
		runner.script(fmt.Sprintf("https://example.com/v%d", i), []string{
			"[download] 100% of 3.52MiB in 00:01",
		}, nil)
	}

	orch := newTestOrchestrator(t, runner)

	for i := 0; i < 5; i++ {
		_, err := orch.Submit(&domain.DownloadRequest{
			URL:      fmt.Sprintf("https://example.com/v%d", i),
			FormatID: "best",
		})
		require.NoError(t, err)
	}

	for i := 0; i < 5; i++ {
		waitForStatus(t, orch, fmt.Sprintf("https://example.com/v%d", i), domain.StatusCompleted)
	}
}

func TestOrchestrator_ShutdownRejectsNewSubmissions(t *testing.T) {
	orch := newTestOrchestrator(t, newFakeRunner())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, orch.Shutdown(ctx))

	_, err := orch.Submit(&domain.DownloadRequest{URL: "https://example.com/v", FormatID: "best"})
	assert.Error(t, err)
}

// captureHistory records every created row for assertions.
type captureHistory struct {
	mu      sync.Mutex
	records []*domain.DownloadRecord
}

func (h *captureHistory) Create(record *domain.DownloadRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return nil
}

func (h *captureHistory) Recent(limit int) ([]*domain.DownloadRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*domain.DownloadRecord, len(h.records))
	copy(out, h.records)
	return out, nil
}

func (h *captureHistory) Stats() (*domain.HistoryStats, error) { return &domain.HistoryStats{}, nil }
func (h *captureHistory) Close() error                         { return nil }

func TestOrchestrator_HistoryRecordImmuneToResubmitRace(t *testing.T) {
	store, err := LoadConfigStore(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	history := &captureHistory{}
	orch := NewOrchestrator(NewJobRegistry(), newFakeRunner(), store, history, nil)

	// A client polling status sees the job turn terminal and re-submits the
	// same URL immediately. The record written for the finished job must
	// still describe that job, not the replacement.
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("https://example.com/v%d", i)
		require.NoError(t, orch.registry.Register(key))

		stop := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-stop:
					return
				default:
					orch.registry.Register(key)
				}
			}
		}()

		orch.finish(key, "best", func(s *domain.JobState) { s.MarkCompleted() })
		close(stop)
		<-done
	}

	records, err := history.Recent(0)
	require.NoError(t, err)
	require.Len(t, records, 200)
	for _, record := range records {
		assert.Equal(t, domain.StatusCompleted, record.Status)
		assert.Equal(t, "best", record.FormatID)
		assert.Empty(t, record.Error)
		assert.Equal(t, 100.0, record.Progress)
	}
}

func TestOrchestrator_ShutdownWaitsForAcceptedJobs(t *testing.T) {
	orch := newTestOrchestrator(t, newFakeRunner())

	var mu sync.Mutex
	var accepted []string
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("https://example.com/v%d", i)
			if _, err := orch.Submit(&domain.DownloadRequest{URL: key, FormatID: "best"}); err == nil {
				mu.Lock()
				accepted = append(accepted, key)
				mu.Unlock()
			}
		}(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, orch.Shutdown(ctx))
	wg.Wait()

	// Every submission that got a key back has a monitor Shutdown waited
	// for, so nothing is left mid-flight.
	mu.Lock()
	defer mu.Unlock()
	for _, key := range accepted {
		state, ok := orch.Registry().Snapshot(key)
		require.True(t, ok)
		assert.True(t, state.Status.IsTerminal(), "job %s still %s after shutdown", key, state.Status)
	}
}

func TestResolveOutputTemplate(t *testing.T) {
	dir := "/data/downloads"

	assert.Equal(t, filepath.Join(dir, "%(title)s [%(id)s].%(ext)s"), ResolveOutputTemplate("", dir))
	assert.Equal(t, filepath.Join(dir, "music/%(title)s.%(ext)s"), ResolveOutputTemplate("music/%(title)s.%(ext)s", dir))
	assert.Equal(t, "/mnt/bulk/%(id)s.%(ext)s", ResolveOutputTemplate("/mnt/bulk/%(id)s.%(ext)s", dir))
}
