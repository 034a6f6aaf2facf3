package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		args     []string
		wantMode string
		wantRest []string
	}{
		{"mode flag", []string{"--mode=quote-service", "--port=3000"}, ModeQuote, []string{"--port=3000"}},
		{"subcommand shorthand", []string{"publisher", "--interval=2s"}, ModePublisher, []string{"--interval=2s"}},
		{"alias", []string{"--mode=sweep"}, ModeSweeper, nil},
		{"consumer alias", []string{"notifications", "--prefetch=5"}, ModeConsumer, []string{"--prefetch=5"}},
		{"no mode", []string{"--port=3000"}, "", []string{"--port=3000"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mode, rest, err := ParseMode(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.wantMode, mode)
			assert.Equal(t, tc.wantRest, rest)
		})
	}
}
