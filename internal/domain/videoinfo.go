package domain

// VideoInfo is the metadata returned by the external tool's JSON probe.
type VideoInfo struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Formats   []Format `json:"formats"`
}

// Format is a single downloadable format.
type Format struct {
	FormatID   string   `json:"format_id"`
	Ext        string   `json:"ext"`
	Resolution string   `json:"resolution"`
	VCodec     string   `json:"vcodec"`
	ACodec     string   `json:"acodec"`
	Filesize   *int64   `json:"filesize,omitempty"`
	TBR        *float64 `json:"tbr,omitempty"` // total bitrate in KBit/s
}
