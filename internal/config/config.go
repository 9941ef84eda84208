package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sceneview/internal/gpu"
	"sceneview/internal/log"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var logger = log.New("config")

// Settings holds application configuration
type Settings struct {
	Title      string     `toml:"title" yaml:"title"`
	Width      int        `toml:"width" yaml:"width"`
	Height     int        `toml:"height" yaml:"height"`
	FPS        int        `toml:"fps" yaml:"fps"`
	Pipeline   string     `toml:"pipeline" yaml:"pipeline"`
	Samples    int        `toml:"samples" yaml:"samples"`
	MinVersion string     `toml:"min_version" yaml:"min_version"`
	LogLevel   string     `toml:"log_level" yaml:"log_level"`
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`
	// PoolIdleFrames is how many frames an unused attachment buffer survives.
	PoolIdleFrames int `toml:"pool_idle_frames" yaml:"pool_idle_frames"`
	// SlowFrameMs logs a profile of any frame slower than this; 0 disables.
	SlowFrameMs int `toml:"slow_frame_ms" yaml:"slow_frame_ms"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Title:          "sceneview",
		Width:          900,
		Height:         600,
		FPS:            60,
		Pipeline:       "forward",
		Samples:        1,
		MinVersion:     "2.0",
		LogLevel:       "notice",
		ClearColor:     [4]float32{0.53, 0.81, 0.92, 1.0},
		PoolIdleFrames: 3,
		SlowFrameMs:    50,
	}
}

// Clamp brings out-of-range values back to something usable.
func (s *Settings) Clamp() {
	d := Defaults()
	if s.Title == "" {
		s.Title = d.Title
	}
	s.Width = clamp(s.Width, 64, 8192)
	s.Height = clamp(s.Height, 64, 8192)
	// FPS 0 means unlimited
	s.FPS = clamp(s.FPS, 0, 1000)
	s.Samples = clamp(s.Samples, 1, 16)
	s.PoolIdleFrames = clamp(s.PoolIdleFrames, 1, 600)
	s.SlowFrameMs = clamp(s.SlowFrameMs, 0, 10000)
	if s.Pipeline == "" {
		s.Pipeline = d.Pipeline
	}
	if s.MinVersion == "" {
		s.MinVersion = d.MinVersion
	}
	for i := range s.ClearColor {
		s.ClearColor[i] = min(max(s.ClearColor[i], 0), 1)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ContextVersion parses MinVersion ("3.0", "3.1", ...).
func (s Settings) ContextVersion() (gpu.ContextVersion, error) {
	return gpu.ParseVersionNumber(s.MinVersion)
}

// Validate reports settings that cannot be clamped into shape.
func (s Settings) Validate() error {
	if _, err := s.ContextVersion(); err != nil {
		return fmt.Errorf("min_version: %w", err)
	}
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

var (
	mu      sync.RWMutex
	current = Defaults()
)

// Get returns the current settings
func Get() Settings {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set clamps and stores s
func Set(s Settings) {
	s.Clamp()
	mu.Lock()
	defer mu.Unlock()
	current = s
}

// GetFPSLimit returns the current frame rate cap; 0 is unlimited
func GetFPSLimit() int {
	mu.RLock()
	defer mu.RUnlock()
	return current.FPS
}

// SetFPSLimit sets the frame rate cap
func SetFPSLimit(fps int) {
	mu.Lock()
	defer mu.Unlock()
	current.FPS = clamp(fps, 0, 1000)
}

// Load reads settings from a TOML or YAML file, chosen by extension.
// Missing keys keep their defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	s := Defaults()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return Settings{}, fmt.Errorf("config: unsupported file type %q", ext)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	s.Clamp()
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return s, nil
}

// Watch reloads path whenever it changes, stores the result with Set and
// passes it to fn. Bad files are logged and skipped. Watch blocks until ctx
// is done.
func Watch(ctx context.Context, path string, fn func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	logger.Infof("watching %s", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s, err := Load(path)
			if err != nil {
				logger.Warningf("ignoring config change: %v", err)
				continue
			}
			Set(s)
			logger.Noticef("reloaded %s", path)
			if fn != nil {
				fn(s)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warningf("watch %s: %v", path, err)
		}
	}
}
