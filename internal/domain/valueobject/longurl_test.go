package valueobject

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLongURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantErr  error
		wantHost string
	}{
		{
			name:     "valid https URL",
			url:      "https://example.com",
			wantHost: "example.com",
		},
		{
			name:     "valid http URL with path and query",
			url:      "http://example.com/path?q=1",
			wantHost: "example.com",
		},
		{
			name:     "valid URL with port",
			url:      "https://example.com:8443/a",
			wantHost: "example.com:8443",
		},
		{
			name:     "upper-case scheme",
			url:      "HTTPS://example.com/a",
			wantHost: "example.com",
		},
		{
			name:     "mixed-case scheme",
			url:      "Http://example.com",
			wantHost: "example.com",
		},
		{
			name:    "upper-case ftp scheme",
			url:     "FTP://example.com/file",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "empty URL",
			url:     "",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "ftp scheme",
			url:     "ftp://example.com/file",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "missing scheme",
			url:     "example.com",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "too long",
			url:     "https://example.com/" + strings.Repeat("a", MaxLongURLLength),
			wantErr: ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewLongURL(tt.url)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, u.IsEmpty())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url, u.String())
			assert.Equal(t, tt.wantHost, u.Host())
		})
	}
}
