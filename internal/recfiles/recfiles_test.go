package recfiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/companyzero/soundcore/internal/assert"
	"github.com/companyzero/soundcore/internal/testutils"
)

type testSummary struct {
	ID      string
	Samples int64
	Started time.Time
	Devices []string
}

// TestTOMLRoundTrip asserts written files can be read back and leave no temp
// file behind.
func TestTOMLRoundTrip(t *testing.T) {
	t.Parallel()

	dir := testutils.TempTestDir(t, "recfiles")
	fname := filepath.Join(dir, "sub", "rec.toml")
	want := testSummary{
		ID:      "abc",
		Samples: 48000,
		Started: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Devices: []string{"capture:01"},
	}
	log := testutils.TestLoggerSys(t, "RECF")
	assert.NilErr(t, WriteTOML(fname, want, log))

	var got testSummary
	assert.NilErr(t, ReadTOML(fname, &got))
	assert.DeepEqual(t, got.ID, want.ID)
	assert.DeepEqual(t, got.Samples, want.Samples)
	assert.DeepEqual(t, got.Devices, want.Devices)
	assert.BoolIs(t, got.Started.Equal(want.Started), true)

	_, err := os.Stat(filepath.Join(dir, "sub", ".rec.toml.new"))
	assert.BoolIs(t, os.IsNotExist(err), true)

	assert.ErrorIs(t, ReadTOML(filepath.Join(dir, "missing.toml"), &got), ErrNotFound)
}

// TestNumberedPattern asserts the next file is numbered after the highest
// existing one.
func TestNumberedPattern(t *testing.T) {
	t.Parallel()

	dir := testutils.TempTestDir(t, "recfiles")
	p := MakeNumberedPattern("rec-", ".wav")
	assert.DeepEqual(t, p.FilenameFor(12), "rec-000012.wav")

	next, err := p.Next(filepath.Join(dir, "missing"))
	assert.NilErr(t, err)
	assert.DeepEqual(t, filepath.Base(next), "rec-000001.wav")

	for _, name := range []string{"rec-000003.wav", "rec-10.wav",
		"rec-000002.wav", "rec-000004.opus", "other.wav", "rec-x.wav"} {
		assert.NilErr(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	assert.NilErr(t, os.Mkdir(filepath.Join(dir, "rec-000099.wav"), 0o700))

	files, err := p.Match(dir)
	assert.NilErr(t, err)
	assert.DeepEqual(t, files, []NumberedFile{
		{Filename: "rec-000002.wav", ID: 2},
		{Filename: "rec-000003.wav", ID: 3},
		{Filename: "rec-10.wav", ID: 10},
	})

	next, err = p.Next(dir)
	assert.NilErr(t, err)
	assert.DeepEqual(t, next, filepath.Join(dir, "rec-000011.wav"))
}
