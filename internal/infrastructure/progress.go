package infrastructure

import (
	"regexp"
	"strconv"
	"strings"
)

// UpdateKind classifies a parsed progress fragment.
type UpdateKind int

const (
	// UpdateProgress carries percent/speed/eta tokens from a download line.
	UpdateProgress UpdateKind = iota
	// UpdatePostProcessing marks the hand-off to the external processing
	// tool (audio extraction, remux, thumbnail embedding).
	UpdatePostProcessing
	// UpdateAlreadyDownloaded is the tool's no-op signal for a file that is
	// already on disk.
	UpdateAlreadyDownloaded
)

// ProgressUpdate is the structured fragment extracted from one line of
// subprocess output.
type ProgressUpdate struct {
	Kind       UpdateKind
	Percent    float64
	HasPercent bool
	Speed      string
	ETA        string
}

var (
	rePercent = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)%`)
	reSpeed   = regexp.MustCompile(`\bat\s+([^\s]+)`)
	reETA     = regexp.MustCompile(`\bETA\s+([0-9:]+)`)
)

// postProcessPrefixes are the tool's post-processor tags. Any of them means
// the download phase is over and the external processing tool has taken over.
var postProcessPrefixes = []string{
	"[ExtractAudio]",
	"[Merger]",
	"[VideoRemuxer]",
	"[VideoConvertor]",
	"[EmbedThumbnail]",
	"[ThumbnailsConvertor]",
	"[Metadata]",
	"[SponsorBlock]",
	"[ModifyChapters]",
	"[Fixup",
	"[ffmpeg]",
}

// ParseLine turns one line of external-tool output into a structured
// progress update. It is a pure function: unrecognized lines return
// ok=false and are safe to discard, malformed numeric fragments never
// panic, and a line that parses ambiguously simply omits the ambiguous
// token so prior state is left unchanged.
func ParseLine(line string) (ProgressUpdate, bool) {
	l := strings.TrimSpace(line)
	if l == "" {
		return ProgressUpdate{}, false
	}

	if strings.HasPrefix(l, "[download]") {
		if strings.Contains(l, "has already been downloaded") {
			return ProgressUpdate{
				Kind:       UpdateAlreadyDownloaded,
				Percent:    100.0,
				HasPercent: true,
			}, true
		}

		upd := ProgressUpdate{Kind: UpdateProgress}
		if m := rePercent.FindStringSubmatch(l); len(m) > 1 {
			if pct, err := parsePercent(m[1]); err == nil {
				upd.Percent = pct
				upd.HasPercent = true
			}
		}
		if m := reSpeed.FindStringSubmatch(l); len(m) > 1 {
			upd.Speed = m[1]
		}
		if m := reETA.FindStringSubmatch(l); len(m) > 1 {
			upd.ETA = m[1]
		}
		if !upd.HasPercent && upd.Speed == "" && upd.ETA == "" {
			// Destination announcements and other download chatter.
			return ProgressUpdate{}, false
		}
		return upd, true
	}

	for _, prefix := range postProcessPrefixes {
		if strings.HasPrefix(l, prefix) {
			return ProgressUpdate{Kind: UpdatePostProcessing}, true
		}
	}

	return ProgressUpdate{}, false
}

// parsePercent parses a percent token, tolerating a comma decimal
// separator. Values are clamped to [0, 100].
func parsePercent(token string) (float64, error) {
	token = strings.ReplaceAll(token, ",", ".")
	pct, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, err
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}
