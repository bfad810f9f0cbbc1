package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJobFilesSkipsEmptyOptionalInputs(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeJobFiles(dir, []byte("print(1)"), nil, nil))

	assert.FileExists(t, filepath.Join(dir, codeFileName))
	assert.NoFileExists(t, filepath.Join(dir, datasetFileName))
	assert.NoFileExists(t, filepath.Join(dir, requirementFileName))
}

func TestWriteJobFilesWritesAllThree(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeJobFiles(dir, []byte("code"), []byte("data"), []byte("numpy")))

	code, err := os.ReadFile(filepath.Join(dir, codeFileName))
	require.NoError(t, err)
	assert.Equal(t, []byte("code"), code)

	dataset, err := os.ReadFile(filepath.Join(dir, datasetFileName))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), dataset)
}

func TestSanitizeOutputName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain file", "plot.png", "plot.png"},
		{"hidden file rejected", ".env", ""},
		{"path traversal rejected", "../../etc/passwd", ""},
		{"nested path rejected", "sub/plot.png", ""},
		{"dot rejected", ".", ""},
		{"double dot in name rejected", "a..b", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeOutputName(tt.in))
		})
	}
}

func TestCollectOutputFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	files, err := collectOutputFiles(dir)
	require.NoError(t, err)

	assert.Len(t, files, 1)
	assert.Equal(t, []byte("hello"), files["report.txt"])
}

func TestCPUPercentZeroWhenNoDelta(t *testing.T) {
	var s dockerStatsJSON
	assert.Equal(t, 0.0, cpuPercent(s))
}

func TestCPUPercentComputesExpectedRatio(t *testing.T) {
	var s dockerStatsJSON
	s.CPUStats.CPUUsage.TotalUsage = 2_000_000_000
	s.PreCPUStats.CPUUsage.TotalUsage = 1_000_000_000
	s.CPUStats.SystemUsage = 10_000_000_000
	s.PreCPUStats.SystemUsage = 5_000_000_000
	s.CPUStats.CPUUsage.PercpuUsage = []uint64{0, 0}

	// cpuDelta=1e9, systemDelta=5e9, cpuCount=2 -> (1e9/5e9)*2*100 = 40
	assert.Equal(t, 40.0, cpuPercent(s))
}

func TestMemPercentZeroWhenNoLimit(t *testing.T) {
	var s dockerStatsJSON
	assert.Equal(t, 0.0, memPercent(s))
}

func TestMemPercentComputesRatio(t *testing.T) {
	var s dockerStatsJSON
	s.MemoryStats.Usage = 50
	s.MemoryStats.Limit = 200
	assert.Equal(t, 25.0, memPercent(s))
}
