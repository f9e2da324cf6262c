package errors

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_ErrorIncludesField(t *testing.T) {
	err := ValidationError("mode", "must be one of exact, vibe, both")
	assert.Contains(t, err.Error(), "mode")
	assert.Contains(t, err.Error(), "must be one of")
}

func TestAPIError_ErrorWithoutField(t *testing.T) {
	err := AudioTooShort()
	assert.NotContains(t, err.Error(), "field:")
}

func TestAPIError_MarshalJSON_Flattened(t *testing.T) {
	err := FileTooLarge(1024)

	data, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, string(ErrFileTooLarge), decoded["code"])
	assert.Contains(t, decoded["message"], "1024")
	_, hasStatus := decoded["status"]
	assert.False(t, hasStatus, "Status should not be serialized (json:\"-\")")
}

func TestDecodeFailed_TruncatesLongStderr(t *testing.T) {
	long := strings.Repeat("x", 3000)
	err := DecodeFailed(long)
	assert.LessOrEqual(t, len(err.Details), 2000+len("...(truncated)"))
	assert.Contains(t, err.Details, "...(truncated)")
}

func TestRateLimited_DefaultsMessage(t *testing.T) {
	err := RateLimited("")
	assert.NotEmpty(t, err.Message)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
}

func TestWithDetails(t *testing.T) {
	err := InternalError("boom").WithDetails("extra context")
	assert.Equal(t, "extra context", err.Details)
}

func TestRangeNotSatisfiable_FormatsContentRange(t *testing.T) {
	err := RangeNotSatisfiable(5000)
	assert.Equal(t, "bytes */5000", err.Details)
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, err.Status)
}
