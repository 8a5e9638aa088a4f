package domain

import "time"

// JobStatus represents the current status of a download job
type JobStatus string

const (
	StatusQueued         JobStatus = "queued"
	StatusDownloading    JobStatus = "downloading"
	StatusPostProcessing JobStatus = "post_processing"
	StatusCompleted      JobStatus = "completed"
	StatusFailed         JobStatus = "failed"
)

// IsActive reports whether the status denotes a job that is still running.
// A key with an active job rejects re-submission.
func (s JobStatus) IsActive() bool {
	return s == StatusQueued || s == StatusDownloading || s == StatusPostProcessing
}

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobState is the live record of one download job. It is owned by the job
// registry; the monitoring goroutine for the job is its only writer, status
// queries read copies. Error is non-empty if and only if Status is failed.
// Progress never decreases and freezes at its last value once terminal.
type JobState struct {
	Status    JobStatus  `json:"status"`
	Progress  float64    `json:"progress"`
	Speed     string     `json:"speed"`
	ETA       string     `json:"eta"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// NewJobState creates a fresh queued state.
func NewJobState() JobState {
	return JobState{
		Status:    StatusQueued,
		StartedAt: time.Now(),
	}
}

// MarkDownloading records that the subprocess has been spawned.
func (s *JobState) MarkDownloading() {
	if s.Status == StatusQueued {
		s.Status = StatusDownloading
	}
}

// MarkPostProcessing records that the external tool has moved on to
// post-processing (audio extraction, remux, thumbnail embedding).
func (s *JobState) MarkPostProcessing() {
	if s.Status == StatusQueued || s.Status == StatusDownloading {
		s.Status = StatusPostProcessing
	}
}

// ApplyProgress applies one parsed progress fragment. Percent values below
// the current progress are ignored so polling never observes a decrease;
// empty speed/eta leave the previous values in place. Progress fragments
// arriving during post-processing update the numbers without regressing
// the status.
func (s *JobState) ApplyProgress(percent float64, speed, eta string) {
	if s.Status.IsTerminal() {
		return
	}
	s.MarkDownloading()
	if percent >= 0 && percent > s.Progress {
		if percent > 100 {
			percent = 100
		}
		s.Progress = percent
	}
	if speed != "" {
		s.Speed = speed
	}
	if eta != "" {
		s.ETA = eta
	}
}

// MarkCompleted applies the terminal success transition.
func (s *JobState) MarkCompleted() {
	s.Status = StatusCompleted
	s.Progress = 100.0
	s.Error = ""
	now := time.Now()
	s.EndedAt = &now
}

// MarkFailed applies the terminal failure transition. Progress is left at
// its last observed value rather than reset.
func (s *JobState) MarkFailed(message string) {
	if message == "" {
		message = "download failed"
	}
	s.Status = StatusFailed
	s.Error = message
	now := time.Now()
	s.EndedAt = &now
}
