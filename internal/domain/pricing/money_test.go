package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoneyConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Money(45_833), NewMoneyFromFloat2(458.33))
	assert.Equal(t, Money(100), NewMoneyFromFloat2(0.999))
	assert.Equal(t, Money(0), NewMoneyFromFloat2(0))
	assert.Equal(t, 458.33, Money(45_833).ToFloat2())
}
