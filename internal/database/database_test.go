package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClose_NilDBIsNoop(t *testing.T) {
	assert.NoError(t, Close(nil))
}

func TestHealth_NilDBReturnsError(t *testing.T) {
	assert.Error(t, Health(nil))
}
