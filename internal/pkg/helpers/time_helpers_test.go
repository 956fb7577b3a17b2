package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseDuration("", 5*time.Second))
	assert.Equal(t, 5*time.Second, ParseDuration("nope", 5*time.Second))
	assert.Equal(t, time.Minute, ParseDuration("1m", 5*time.Second))
}

func TestMegabytes(t *testing.T) {
	assert.Equal(t, int64(10*1024*1024), Megabytes(10))
}
