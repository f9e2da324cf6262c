package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	assert.Equal(t, 5, ParseInt("5", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("not-a-number", 1))
	assert.Equal(t, -3, ParseInt("-3", 0))
}

func TestParseIntParam(t *testing.T) {
	v, err := ParseIntParam("42")
	assert.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = ParseIntParam("nope")
	assert.Error(t, err)
}

func TestParseFloat(t *testing.T) {
	assert.InDelta(t, 3.14, ParseFloat("3.14", 0), 1e-9)
	assert.Equal(t, 2.5, ParseFloat("", 2.5))
	assert.Equal(t, 2.5, ParseFloat("abc", 2.5))
}
