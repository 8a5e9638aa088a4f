package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// lineBufferSize bounds the per-job output channel. A subprocess that emits
// progress faster than the monitor consumes it blocks on this channel
// instead of growing memory.
const lineBufferSize = 256

// maxLineBytes caps a single scanned output line.
const maxLineBytes = 1024 * 1024

// YTDLPRunner drives the yt-dlp binary.
type YTDLPRunner struct {
	binary string
	logger *zap.Logger
}

// NewYTDLPRunner creates a runner for the given binary name or path.
func NewYTDLPRunner(binary string, logger *zap.Logger) *YTDLPRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPRunner{binary: binary, logger: logger}
}

// Probe invokes the tool in metadata-only mode and decodes the JSON dump.
// No download side effect.
func (r *YTDLPRunner) Probe(ctx context.Context, url string) (*domain.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, r.binary, "--dump-json", url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Probing formats",
		zap.String("command", ShellEscapeCommand(r.binary, "--dump-json", url)))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("yt-dlp probe failed: %s", msg)
	}

	var info domain.VideoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp metadata: %w", err)
	}
	return &info, nil
}

// BuildArgs maps a download request to the tool's argument vector. The
// mapping is deterministic and order-independent of how the request was
// built: one rule per directive, and an unset directive emits no flag at
// all because the tool treats flag presence as the toggle.
func BuildArgs(req *domain.DownloadRequest, outputTemplate string) []string {
	args := []string{
		"-f", req.FormatID,
		"--newline",
		"-o", outputTemplate,
	}

	if req.WriteInfoJSON {
		args = append(args, "--write-info-json")
	}
	if req.WriteThumbnail {
		args = append(args, "--write-thumbnail")
	}
	if req.RestrictFilenames {
		args = append(args, "--restrict-filenames")
	}
	if req.PlaylistItems != "" {
		args = append(args, "--playlist-items", req.PlaylistItems)
	}
	if req.MatchFilter != "" {
		args = append(args, "--match-filters", req.MatchFilter)
	}
	if req.MaxFilesize != "" {
		args = append(args, "--max-filesize", req.MaxFilesize)
	}
	if req.ExtractAudio {
		args = append(args, "--extract-audio")
		if req.AudioFormat != "" {
			args = append(args, "--audio-format", req.AudioFormat)
		}
		if req.AudioQuality != "" {
			args = append(args, "--audio-quality", req.AudioQuality)
		}
	} else if req.RemuxVideo != "" {
		args = append(args, "--remux-video", req.RemuxVideo)
	}
	if req.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if req.SponsorblockRemove != "" {
		args = append(args, "--sponsorblock-remove", req.SponsorblockRemove)
	}
	if req.SponsorblockMark != "" {
		args = append(args, "--sponsorblock-mark", req.SponsorblockMark)
	}

	return append(args, req.URL)
}

// Start spawns one download subprocess with stdout and stderr captured as a
// merged line stream. The returned process is killed when ctx is cancelled.
func (r *YTDLPRunner) Start(ctx context.Context, req *domain.DownloadRequest, outputTemplate string) (domain.ToolProcess, error) {
	args := BuildArgs(req, outputTemplate)
	cmd := exec.CommandContext(ctx, r.binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to capture stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to capture stderr: %w", err)
	}

	r.logger.Info("Spawning downloader",
		zap.String("url", req.URL),
		zap.String("command", ShellEscapeCommand(r.binary, args...)))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", r.binary, err)
	}

	proc := &ytdlpProcess{
		cmd:   cmd,
		lines: make(chan string, lineBufferSize),
	}
	proc.readers.Add(2)
	go proc.scan(stdout)
	go proc.scan(stderr)
	go func() {
		proc.readers.Wait()
		close(proc.lines)
	}()

	return proc, nil
}

// ytdlpProcess streams the merged output of one running subprocess. Lines
// from the two pipes are interleaved but each pipe is consumed in order,
// which is what progress parsing needs (progress lines come from stdout).
type ytdlpProcess struct {
	cmd     *exec.Cmd
	lines   chan string
	readers sync.WaitGroup
}

func (p *ytdlpProcess) Lines() <-chan string {
	return p.lines
}

// Wait blocks until the subprocess exits. Callers must drain Lines first.
func (p *ytdlpProcess) Wait() error {
	p.readers.Wait()
	return p.cmd.Wait()
}

func (p *ytdlpProcess) scan(pipe io.Reader) {
	defer p.readers.Done()
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(splitByNewlineOrCR)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
}

// splitByNewlineOrCR splits on \n or \r so carriage-return progress
// rewrites still surface as lines even without --newline.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
