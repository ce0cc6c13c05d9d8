package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/anuvad/internal/subtitle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,000
Hello

2
00:00:03,000 --> 00:00:04,000
World
`

func parseSample(t *testing.T) subtitle.File {
	t.Helper()
	f, err := subtitle.Parse(strings.NewReader(sampleSRT), subtitle.FormatSRT)
	require.NoError(t, err)
	return f
}

func TestFileCheckpointWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.id.partial.srt")
	layout := parseSample(t)

	w := NewFileCheckpointWriter(path, layout)
	defer func() { _ = w.Close() }()

	entries := layout.Subtitle().Entries
	entries[0].Text = "Halo"
	require.NoError(t, w.WriteCheckpoint(entries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"1\n00:00:01,000 --> 00:00:02,000\nHalo\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n\n",
		string(data),
	)

	entries[1].Text = "Dunia"
	require.NoError(t, w.WriteCheckpoint(entries))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Dunia")

	// only the checkpoint and its lock remain, no temp files
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.ElementsMatch(t, []string{"movie.id.partial.srt", "movie.id.partial.srt.lock"}, names)
}

func TestFileCheckpointWriterLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.partial.srt")
	layout := parseSample(t)

	first := NewFileCheckpointWriter(path, layout)
	require.NoError(t, first.Acquire())

	second := NewFileCheckpointWriter(path, layout)
	err := second.WriteCheckpoint(layout.Subtitle().Entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use by another run")

	require.NoError(t, first.Close())
	_, statErr := os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, second.Acquire())
	require.NoError(t, second.Close())
}

func TestFileCheckpointWriterCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.partial.srt")
	layout := parseSample(t)

	w := NewFileCheckpointWriter(path, layout)
	defer func() { _ = w.Close() }()

	err := w.WriteCheckpoint(layout.Subtitle().Entries[:1])
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
