package conf

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string seconds", input: `"1s"`, want: time.Second},
		{name: "string composite", input: `"1m30s"`, want: 90 * time.Second},
		{name: "nanoseconds", input: `1000`, want: time.Microsecond},
		{name: "invalid string", input: `"soon"`, wantErr: true},
		{name: "invalid type", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.AsDuration())
		})
	}
}

func TestBootstrap_Unmarshal(t *testing.T) {
	// Arrange
	raw := `{
		"shortener": {"node_id": 7, "default_expiry": "720h", "rate_limit": {"capacity": 10, "refill_interval": "1m"}},
		"analytics": {"driver": "redis", "partitions": 4}
	}`

	// Act
	var bc Bootstrap
	err := json.Unmarshal([]byte(raw), &bc)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(7), bc.Shortener.NodeId)
	assert.Equal(t, 720*time.Hour, bc.Shortener.DefaultExpiry.AsDuration())
	assert.Equal(t, int64(10), bc.Shortener.RateLimit.Capacity)
	assert.Equal(t, time.Minute, bc.Shortener.RateLimit.RefillInterval.AsDuration())
	assert.Equal(t, 4, bc.Analytics.Partitions)
}
