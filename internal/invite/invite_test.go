package invite

import (
	"strings"
	"testing"

	"github.com/matheus3301/huddle/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkStripsCredentials(t *testing.T) {
	tests := []struct {
		name string
		in   config.Store
		want config.Store
	}{
		{
			name: "redis password",
			in:   config.Store{Backend: config.BackendRedis, RedisURL: "redis://:hunter2@cache.example:6379/2"},
			want: config.Store{Backend: config.BackendRedis, RedisURL: "redis://cache.example:6379/2"},
		},
		{
			name: "rtdb auth query",
			in:   config.Store{Backend: config.BackendRTDB, RTDBURL: "https://chat.firebaseio.com?auth=secret", RTDBAuth: "secret"},
			want: config.Store{Backend: config.BackendRTDB, RTDBURL: "https://chat.firebaseio.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := Link(tt.in)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(link, "huddle://"+tt.in.Backend+"?"))
			assert.NotContains(t, link, "secret")
			assert.NotContains(t, link, "hunter2")

			got, err := Parse(link)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinkRejectsHub(t *testing.T) {
	_, err := Link(config.Store{Backend: config.BackendHub})
	assert.ErrorIs(t, err, ErrLocalBackend)
}

func TestParseRejectsForeignLinks(t *testing.T) {
	for _, link := range []string{"https://example.com", "huddle://redis", "huddle://hub?url=x"} {
		_, err := Parse(link)
		assert.Error(t, err, link)
	}
}

func TestQRIsSquareBlock(t *testing.T) {
	out, err := QR("huddle://rtdb?url=https%3A%2F%2Fchat.firebaseio.com")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.NotEmpty(t, lines)
	width := len([]rune(lines[0]))
	for _, l := range lines {
		assert.Equal(t, width, len([]rune(l)))
	}
	assert.Contains(t, out, "█")
}
