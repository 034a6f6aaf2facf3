package customers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRiskProfile_AgeAt(t *testing.T) {
	t.Parallel()

	dob := time.Date(1991, 4, 12, 0, 0, 0, 0, time.UTC)
	p := RiskProfile{DateOfBirth: dob}

	assert.Equal(t, 35, p.AgeAt(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 34, p.AgeAt(time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC)), "day before birthday")
	assert.Equal(t, 35, p.AgeAt(time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)), "on the birthday")
}
