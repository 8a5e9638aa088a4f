package domain

import "context"

// ToolProcess is one running invocation of the external download tool.
// Lines delivers the merged stdout/stderr output line by line over a
// bounded channel; Wait must be called after the channel closes and
// returns the process exit error, if any.
type ToolProcess interface {
	Lines() <-chan string
	Wait() error
}

// ToolRunner abstracts the external download tool so the orchestrator can
// be exercised without a real binary.
type ToolRunner interface {
	// Probe fetches metadata for a URL without downloading anything.
	Probe(ctx context.Context, url string) (*VideoInfo, error)

	// Start spawns one download subprocess. The returned process is killed
	// when ctx is cancelled.
	Start(ctx context.Context, req *DownloadRequest, outputTemplate string) (ToolProcess, error)
}
