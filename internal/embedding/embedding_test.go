package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbed_NilEngineReturnsUnavailable(t *testing.T) {
	var e *Engine
	_, err := e.Embed(context.Background(), []byte{})
	assert.Error(t, err)
}

func TestClose_NilEngineIsNoop(t *testing.T) {
	var e *Engine
	assert.NotPanics(t, func() { e.Close() })
}
