package policies

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewNumber(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("ab12cd34-0000-4000-8000-000000000000")
	issued := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "POL_20260901_ab12cd34", NewNumber(issued, id))
}

func TestNewNumber_UsesUTCDate(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("deadbeef-0000-4000-8000-000000000000")
	// 23:30 east of UTC on Sep 2 is still Sep 1 in UTC
	loc := time.FixedZone("east", 2*3600)
	issued := time.Date(2026, 9, 2, 1, 30, 0, 0, loc)

	assert.Equal(t, "POL_20260901_deadbeef", NewNumber(issued, id))
}
