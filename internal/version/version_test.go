package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit, built string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})
	Version, Commit, BuildTime = v, commit, built
}

func TestString(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		withVersion(t, "dev", "unknown", "unknown")
		assert.Equal(t, "dev (unknown) built unknown", String())
	})

	t.Run("custom values", func(t *testing.T) {
		withVersion(t, "1.2.3", "abc1234", "2024-01-15T10:00:00Z")
		assert.Equal(t, "1.2.3 (abc1234) built 2024-01-15T10:00:00Z", String())
	})
}

func TestUserAgent(t *testing.T) {
	withVersion(t, "0.4.0", "abc1234", "unknown")
	assert.Equal(t, "cbmooners-dashboard/0.4.0", UserAgent())
}
