package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

//nolint:paralleltest // mutates package state
func TestFull(t *testing.T) {
	origVersion, origBuild := version, buildID

	t.Cleanup(func() { version, buildID = origVersion, origBuild })

	version, buildID = "1.2.0", "abc123"
	assert.Equal(t, "1.2.0 (build: abc123)", Full())
	assert.Equal(t, "1.2.0", Version())
	assert.Equal(t, "abc123", BuildID())

	buildID = "1.2.0"
	assert.Equal(t, "1.2.0", Full())

	buildID = ""
	assert.Equal(t, "1.2.0", Full())
}
