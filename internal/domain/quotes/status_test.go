package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusExpired, true},
		{StatusAccepted, StatusPending, false},
		{StatusAccepted, StatusExpired, false},
		{StatusExpired, StatusAccepted, false},
		{StatusExpired, StatusPending, false},
		{Status("UNKNOWN"), StatusAccepted, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
