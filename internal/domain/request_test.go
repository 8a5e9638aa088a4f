package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     DownloadRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  DownloadRequest{URL: "https://www.youtube.com/watch?v=abc", FormatID: "137+140"},
		},
		{
			name:    "missing url",
			req:     DownloadRequest{FormatID: "best"},
			wantErr: true,
		},
		{
			name:    "missing format",
			req:     DownloadRequest{URL: "https://example.com/v"},
			wantErr: true,
		},
		{
			name:    "whitespace url",
			req:     DownloadRequest{URL: "   ", FormatID: "best"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDownloadRequest_Key(t *testing.T) {
	req := DownloadRequest{URL: "https://example.com/v", FormatID: "best"}
	assert.Equal(t, "https://example.com/v", req.Key())
}
