package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_FillsFromBuildInfo(t *testing.T) {
	Version, Commit, Date = "dev", unknown, unknown

	t.Cleanup(func() { Version, Commit, Date = "dev", unknown, unknown })

	apply(&debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: settingRevision, Value: "0123456789abcdef0123"},
			{Key: settingTime, Value: "2024-05-01T10:00:00Z"},
			{Key: settingModified, Value: "true"},
		},
	})

	assert.Equal(t, "v1.2.3", Version)
	assert.Equal(t, "0123456789ab-dirty", Commit)
	assert.Equal(t, "2024-05-01T10:00:00Z", Date)
}

func TestApply_KeepsLinkerValues(t *testing.T) {
	Version, Commit, Date = "v9.9.9", "cafe", "yesterday"

	t.Cleanup(func() { Version, Commit, Date = "dev", unknown, unknown })

	apply(&debug.BuildInfo{
		Main:     debug.Module{Version: develVersion},
		Settings: []debug.BuildSetting{{Key: settingRevision, Value: "ffff"}},
	})

	assert.Equal(t, "v9.9.9", Version)
	assert.Equal(t, "cafe", Commit)
	assert.Equal(t, "yesterday", Date)
}
