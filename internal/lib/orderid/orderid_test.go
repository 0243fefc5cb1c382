package orderid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParse(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 535_000_000, time.UTC)
	id := Build("64f1c0ffee64f1c0ffee64f1", now)
	assert.Equal(t, "flxbt-64f1c0ffee64f1c0ffee64f1-1741964966535", id)

	userID, ts, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "64f1c0ffee64f1c0ffee64f1", userID)
	assert.Equal(t, now.UnixMilli(), ts.UnixMilli())
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"пустая строка", ""},
		{"чужой префикс", "order-abc-123"},
		{"нет пользователя", "flxbt--123"},
		{"нет времени", "flxbt-abc"},
		{"время не число", "flxbt-abc-xyz"},
		{"лишние сегменты", "flxbt-abc-123-456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.in)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
