package domain

import (
	"fmt"
	"strings"
)

// DownloadRequest describes one download: the source URL, the requested
// format selector (possibly a "video+audio" combinator), an optional output
// template, and a bag of optional post-processing directives. The
// orchestrator treats the directive bag opaquely except for destination
// resolution; every directive maps to exactly one external-tool flag and an
// unset directive emits no flag at all.
type DownloadRequest struct {
	URL      string `json:"url" binding:"required"`
	FormatID string `json:"format_id" binding:"required"`

	// OutputTemplate overrides the default destination template. Absolute
	// templates are honored unchanged; relative ones are resolved under the
	// configured download directory.
	OutputTemplate string `json:"output_template,omitempty"`

	WriteInfoJSON     bool `json:"write_info_json,omitempty"`
	WriteThumbnail    bool `json:"write_thumbnail,omitempty"`
	RestrictFilenames bool `json:"restrict_filenames,omitempty"`

	// PlaylistItems selects playlist entries, e.g. "1-3,7".
	PlaylistItems string `json:"playlist_items,omitempty"`
	// MatchFilter is a content filter, e.g. "duration > 600".
	MatchFilter string `json:"match_filter,omitempty"`
	// MaxFilesize caps the download size, e.g. "50M" or "1G".
	MaxFilesize string `json:"max_filesize,omitempty"`

	ExtractAudio bool   `json:"extract_audio,omitempty"`
	AudioFormat  string `json:"audio_format,omitempty"`
	AudioQuality string `json:"audio_quality,omitempty"`
	// RemuxVideo requests a container remux, e.g. "mkv". Only consulted
	// when ExtractAudio is false.
	RemuxVideo     string `json:"remux_video,omitempty"`
	EmbedThumbnail bool   `json:"embed_thumbnail,omitempty"`

	// SponsorblockRemove / SponsorblockMark name segment categories,
	// e.g. "sponsor,selfpromo" or "all".
	SponsorblockRemove string `json:"sponsorblock_remove,omitempty"`
	SponsorblockMark   string `json:"sponsorblock_mark,omitempty"`
}

// Key returns the job key for this request. The source URL correlates the
// request with its live and historical status.
func (r *DownloadRequest) Key() string {
	return r.URL
}

// Validate checks the required fields.
func (r *DownloadRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	if strings.TrimSpace(r.FormatID) == "" {
		return fmt.Errorf("%w: format_id is required", ErrValidation)
	}
	return nil
}
