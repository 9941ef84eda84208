package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sceneview/internal/gpu"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "sceneview.toml", `
title = "demo"
fps = 30
pipeline = "deferred"
samples = 64
min_version = "3.0"
clear_color = [0.0, 0.5, 2.0, 1.0]
`)
	s, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "demo", s.Title)
	assert.Equal(t, 30, s.FPS)
	assert.Equal(t, "deferred", s.Pipeline)
	assert.Equal(t, 16, s.Samples, "clamped")
	assert.Equal(t, [4]float32{0, 0.5, 1, 1}, s.ClearColor)
	assert.Equal(t, 900, s.Width, "default kept")

	v, err := s.ContextVersion()
	require.NoError(t, err)
	assert.Equal(t, gpu.GLES30, v)
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "sceneview.yml", "width: 10\nheight: 480\nlog_level: debug\npool_idle_frames: 0\n")
	s, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 64, s.Width)
	assert.Equal(t, 480, s.Height)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 1, s.PoolIdleFrames)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeFile(t, dir, "a.json", "{}"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "b.toml", `min_version = "9.0"`))
	assert.ErrorIs(t, err, gpu.ErrUnsupportedVersion)

	_, err = Load(writeFile(t, dir, "c.toml", `log_level = "loud"`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "d.toml", `fps = "fast"`))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetSet(t *testing.T) {
	defer Set(Defaults())

	s := Defaults()
	s.FPS = 5000
	Set(s)
	assert.Equal(t, 1000, Get().FPS)
	assert.Equal(t, 1000, GetFPSLimit())

	SetFPSLimit(-3)
	assert.Equal(t, 0, GetFPSLimit())
}

func TestWatchReloads(t *testing.T) {
	defer Set(Defaults())
	dir := t.TempDir()
	p := writeFile(t, dir, "live.toml", "fps = 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Settings, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, p, func(s Settings) { got <- s }) }()

	// The watcher starts asynchronously; keep rewriting until it notices.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case s := <-got:
			assert.Equal(t, 45, s.FPS)
			assert.Equal(t, 45, GetFPSLimit())
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(p, []byte("fps = 45\n"), 0o644))
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
