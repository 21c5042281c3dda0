package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/launchsim/internal/camera"
	"github.com/san-kum/launchsim/internal/config"
	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/launch"
	"github.com/san-kum/launchsim/internal/sequence"
)

func sampleFrames() []sequence.Frame {
	return []sequence.Frame{
		{Tick: 1, Elapsed: 0, Stage: launch.Inert, HasBody: true},
		{
			Tick: 2, Elapsed: 3, Stage: launch.Igniting, TargetVelocityY: 1, HasBody: true,
			Position: dynamo.Vec3{Y: 0.016}, Velocity: dynamo.Vec3{Y: 0.836},
		},
		{
			Tick: 3, Elapsed: 17, Stage: launch.Vibrating, TargetVelocityY: 220,
			Vibrating: true, Rig: camera.RigChase, HasBody: true,
			Position: dynamo.Vec3{X: 0.125, Y: 812.5, Z: -0.25}, Velocity: dynamo.Vec3{Y: 219.836},
		},
		{Tick: 4, Elapsed: 30, Stage: launch.Frozen, Frozen: true, Rig: camera.RigChase, HasBody: true},
	}
}

func sampleMetadata() RunMetadata {
	return RunMetadata{
		Preset:     "default",
		Seed:       7,
		Dt:         1.0 / 60,
		Integrator: "rk4",
		Clock:      "virtual",
		Ticks:      4,
		Frozen:     true,
		Metrics:    map[string]float64{"max_altitude": 812.5, "stability": 1},
	}
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	file := New(filepath.Join(t.TempDir(), "runs"))
	file.now = fixedClock(ts)
	sql := NewSQL(t.TempDir())
	sql.now = fixedClock(ts)

	out := map[string]Store{"file": file, "sqlite": sql}
	for name, s := range out {
		require.NoError(t, s.Init(), name)
		s := s
		t.Cleanup(func() { _ = s.Close() })
	}
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			id, err := s.Save(sampleMetadata(), sampleFrames())
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(id, "default_"))

			meta, err := s.Load(id)
			require.NoError(t, err)
			assert.Equal(t, id, meta.ID)
			assert.Equal(t, int64(7), meta.Seed)
			assert.Equal(t, "rk4", meta.Integrator)
			assert.True(t, meta.Frozen)
			assert.Equal(t, 812.5, meta.Metrics["max_altitude"])
			assert.WithinDuration(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), meta.Timestamp, time.Second)

			frames, err := s.LoadFrames(id)
			require.NoError(t, err)
			require.Len(t, frames, 4)
			for i, want := range sampleFrames() {
				got := frames[i]
				assert.Equal(t, want.Tick, got.Tick)
				assert.Equal(t, want.Stage, got.Stage)
				assert.Equal(t, want.Rig, got.Rig)
				assert.Equal(t, want.Vibrating, got.Vibrating)
				assert.Equal(t, want.Frozen, got.Frozen)
				assert.InDelta(t, want.Elapsed, got.Elapsed, 1e-6)
				assert.InDelta(t, want.Position.Y, got.Position.Y, 1e-6)
				assert.InDelta(t, want.Velocity.Y, got.Velocity.Y, 1e-6)
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			runs, err := s.List()
			require.NoError(t, err)
			assert.Empty(t, runs)

			first := sampleMetadata()
			first.ID = "alpha"
			second := sampleMetadata()
			second.ID = "beta"
			second.Timestamp = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

			_, err = s.Save(first, nil)
			require.NoError(t, err)
			_, err = s.Save(second, sampleFrames())
			require.NoError(t, err)

			runs, err = s.List()
			require.NoError(t, err)
			require.Len(t, runs, 2)
			assert.Equal(t, "alpha", runs[0].ID)
			assert.Equal(t, "beta", runs[1].ID)

			frames, err := s.LoadFrames("alpha")
			require.NoError(t, err)
			assert.Empty(t, frames)
		})
	}
}

func TestStoreMissingRun(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load("nope")
			assert.ErrorIs(t, err, ErrRunNotFound)

			_, err = s.LoadFrames("nope")
			assert.ErrorIs(t, err, ErrRunNotFound)
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())

	id, err := s.Save(sampleMetadata(), sampleFrames())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, id, "metadata.json"))
	data, err := os.ReadFile(filepath.Join(dir, id, "frames.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "tick,elapsed,stage"))
	assert.Contains(t, lines[3], "vibrating")
	assert.Contains(t, lines[3], "chase")
}

func TestFileStoreListSkipsStrayEntries(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "not-a-run"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	runs, err = New(filepath.Join(dir, "missing")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestReadFramesCSVRejectsBadRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFramesCSV(&buf, sampleFrames()[:1]))
	bad := strings.Replace(buf.String(), "inert", "hovering", 1)

	_, err := ReadFramesCSV(strings.NewReader(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestExportJSON(t *testing.T) {
	meta := sampleMetadata()
	meta.ID = "default_1"

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, &meta, sampleFrames()))
	assert.Contains(t, buf.String(), `"stage": "vibrating"`)
	assert.Contains(t, buf.String(), `"rig": "chase"`)

	gotMeta, frames, err := ImportJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, gotMeta.ID)
	assert.Equal(t, sampleFrames(), frames)
}

func TestOpen(t *testing.T) {
	for _, backend := range config.Backends {
		s, err := Open(config.StorageConfig{Backend: backend, Dir: t.TempDir()})
		require.NoError(t, err, backend)
		require.NoError(t, s.Close())
	}

	_, err := Open(config.StorageConfig{Backend: "s3", Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestNewRunMetadata(t *testing.T) {
	cfg := config.GetPreset("heavy")
	res := &sequence.Result{Ticks: 1801, Frozen: true, Metrics: map[string]float64{"peak_speed": 220}}

	meta := NewRunMetadata(cfg, res)
	assert.Equal(t, "heavy", meta.Preset)
	assert.Equal(t, "verlet", meta.Integrator)
	assert.Equal(t, 1801, meta.Ticks)
	assert.Equal(t, 220.0, meta.Metrics["peak_speed"])
	assert.Empty(t, meta.ID)
}
