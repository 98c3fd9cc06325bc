package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "14h 30m", formatCountdown(14*time.Hour+30*time.Minute))
	assert.Equal(t, "1h 0m", formatCountdown(time.Hour))
	assert.Equal(t, "45m", formatCountdown(45*time.Minute))
	assert.Equal(t, "0m", formatCountdown(30*time.Second))
}
