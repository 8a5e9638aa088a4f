package app

import (
	"fmt"
	"sync"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// outputTailLimit bounds the retained subprocess output per job.
const outputTailLimit = 20

// jobEntry is one tracked job. The entry mutex protects state and tail;
// the registry mutex only protects the map itself, so updates to one job
// never block status reads of another.
type jobEntry struct {
	mu    sync.Mutex
	state domain.JobState
	tail  []string
}

// JobRegistry tracks every download job of the current server session,
// keyed by source URL. Entries are never evicted while the server runs:
// terminal states stay queryable until the same URL is re-submitted.
type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[string]*jobEntry)}
}

// Register claims a key for a new job. A key with an active job is
// rejected; a terminal entry is replaced, discarding the old record from
// the live view (history keeps it).
func (r *JobRegistry) Register(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[key]; ok {
		existing.mu.Lock()
		active := existing.state.Status.IsActive()
		existing.mu.Unlock()
		if active {
			return fmt.Errorf("%w: %s", domain.ErrConflict, key)
		}
	}

	r.jobs[key] = &jobEntry{state: domain.NewJobState()}
	return nil
}

// Update applies fn to the job's state under its lock. Unknown keys are
// ignored; the only writer is the job's own monitor goroutine, which
// registered the key itself.
func (r *JobRegistry) Update(key string, fn func(*domain.JobState)) {
	r.mu.RLock()
	entry, ok := r.jobs[key]
	r.mu.RUnlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	fn(&entry.state)
	entry.mu.Unlock()
}

// AppendOutput records one line of subprocess output, keeping only the
// most recent outputTailLimit lines.
func (r *JobRegistry) AppendOutput(key, line string) {
	r.mu.RLock()
	entry, ok := r.jobs[key]
	r.mu.RUnlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	entry.tail = append(entry.tail, line)
	if len(entry.tail) > outputTailLimit {
		entry.tail = entry.tail[len(entry.tail)-outputTailLimit:]
	}
	entry.mu.Unlock()
}

// Tail returns a copy of the retained output lines for a job.
func (r *JobRegistry) Tail(key string) []string {
	r.mu.RLock()
	entry, ok := r.jobs[key]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	out := make([]string, len(entry.tail))
	copy(out, entry.tail)
	return out
}

// Snapshot returns a copy of one job's state.
func (r *JobRegistry) Snapshot(key string) (domain.JobState, bool) {
	r.mu.RLock()
	entry, ok := r.jobs[key]
	r.mu.RUnlock()
	if !ok {
		return domain.JobState{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state, true
}

// SnapshotAll returns a point-in-time copy of every tracked job. Each
// entry is copied under its own lock; the map as a whole is not a single
// atomic observation.
func (r *JobRegistry) SnapshotAll() map[string]domain.JobState {
	r.mu.RLock()
	entries := make(map[string]*jobEntry, len(r.jobs))
	for key, entry := range r.jobs {
		entries[key] = entry
	}
	r.mu.RUnlock()

	out := make(map[string]domain.JobState, len(entries))
	for key, entry := range entries {
		entry.mu.Lock()
		out[key] = entry.state
		entry.mu.Unlock()
	}
	return out
}

// ActiveCount returns the number of jobs that are not yet terminal.
func (r *JobRegistry) ActiveCount() int {
	r.mu.RLock()
	entries := make([]*jobEntry, 0, len(r.jobs))
	for _, entry := range r.jobs {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	count := 0
	for _, entry := range entries {
		entry.mu.Lock()
		if entry.state.Status.IsActive() {
			count++
		}
		entry.mu.Unlock()
	}
	return count
}
