package exitcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeValues(t *testing.T) {
	// Pipeline automation branches on the numeric values; they must not drift.
	assert.Equal(t, 0, Success.Int())
	assert.Equal(t, 1, RequestError.Int())
	assert.Equal(t, 99, GateFailed.Int())
	assert.Equal(t, 150, NoProject.Int())
	assert.Equal(t, 151, SurveyIncomplete.Int())
}

func TestCodeStrings(t *testing.T) {
	assert.Equal(t, "gate_failed", GateFailed.String())
	assert.Equal(t, "unknown", Code(42).String())
	assert.Equal(t, "Gate check passed", Success.Describe())
	assert.Equal(t, "Unknown exit code", Code(42).Describe())
}
