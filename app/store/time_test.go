package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", in: `"2024-05-01T12:34:56Z"`, want: time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)},
		{
			name: "with offset",
			in:   `"2024-05-01T12:34:56+09:00"`,
			want: time.Date(2024, 5, 1, 3, 34, 56, 0, time.UTC),
		},
		{name: "without offset", in: `"2024-05-01T12:34:56"`, want: time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)},
		{
			name: "microseconds without offset",
			in:   `"2024-05-01T12:34:56.123456"`,
			want: time.Date(2024, 5, 1, 12, 34, 56, 123456000, time.UTC),
		},
		{name: "space separated", in: `"2024-05-01 12:34:56"`, want: time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)},
		{name: "null", in: `null`},
		{name: "empty", in: `""`},
		{name: "garbage", in: `"yesterday"`, wantErr: true},
		{name: "number", in: `1714566896`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Time
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time), "want %s, got %s", tt.want, got.Time)
		})
	}
}

func TestTime_RoundTrip(t *testing.T) {
	in := Identity{ID: 1, CreatedAt: Time{Time: time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)}}

	bts, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(bts), `"created_at":"2024-05-01T12:34:56Z"`)

	var out Identity
	require.NoError(t, json.Unmarshal(bts, &out))
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt.Time))
}
