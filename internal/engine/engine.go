// Package engine runs the frame loop that drives scene views on the render
// thread.
package engine

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"sceneview/internal/config"
	"sceneview/internal/log"
	"sceneview/internal/profiling"
	"sceneview/internal/scene"

	"github.com/subchen/go-trylock/v2"
)

var logger = log.New("engine")

// Surface is the window or offscreen target views present to.
type Surface interface {
	// Size is the drawable size in pixels.
	Size() (width, height int)
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
}

type tryLocker interface {
	Lock()
	Unlock()
	TryLock(ctx context.Context) bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithFPS fixes the frame rate instead of following config.GetFPSLimit.
func WithFPS(fps int) Option {
	return func(e *Engine) { e.fps = func() int { return fps } }
}

// WithSlowFrame logs a profile of frames slower than d. Zero disables it.
func WithSlowFrame(d time.Duration) Option {
	return func(e *Engine) { e.slowFrame = d }
}

// WithUpdate runs fn once per frame after events are polled and before the
// views render, with the time since the previous frame.
func WithUpdate(fn func(dt time.Duration)) Option {
	return func(e *Engine) { e.update = fn }
}

// Engine renders its views once per scheduled tick. The scheduler runs on
// its own goroutine; rendering stays on the goroutine that calls Run.
type Engine struct {
	surface   Surface
	views     []*scene.View
	fps       func() int
	slowFrame time.Duration
	update    func(dt time.Duration)
	lastFrame time.Time

	frameLock tryLocker
	ticks     chan struct{}

	width, height int

	frames  atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// New returns an engine presenting to surface.
func New(surface Surface, opts ...Option) *Engine {
	e := &Engine{
		surface:   surface,
		fps:       config.GetFPSLimit,
		slowFrame: time.Duration(config.Get().SlowFrameMs) * time.Millisecond,
		frameLock: trylock.New(),
		ticks:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddView draws v every frame. Views draw in depth order.
func (e *Engine) AddView(v *scene.View) {
	if !slices.Contains(e.views, v) {
		e.views = append(e.views, v)
		e.width, e.height = 0, 0
	}
}

// RemoveView stops drawing v. The caller owns it afterwards.
func (e *Engine) RemoveView(v *scene.View) {
	if i := slices.Index(e.views, v); i >= 0 {
		e.views = slices.Delete(e.views, i, i+1)
	}
}

func (e *Engine) Views() []*scene.View { return e.views }

// Frames is the number of frames rendered.
func (e *Engine) Frames() uint64 { return e.frames.Load() }

// Dropped is the number of ticks skipped because a frame was still in
// flight.
func (e *Engine) Dropped() uint64 { return e.dropped.Load() }

// Failed is the number of frames that returned an error.
func (e *Engine) Failed() uint64 { return e.failed.Load() }

// RenderOnce polls events, renders every view and presents.
func (e *Engine) RenderOnce() error {
	profiling.ResetFrame()
	start := time.Now()

	func() { defer profiling.Track("engine.PollEvents")(); e.surface.PollEvents() }()
	e.syncSurfaceSize()
	if e.update != nil {
		var dt time.Duration
		if !e.lastFrame.IsZero() {
			dt = start.Sub(e.lastFrame)
		}
		func() { defer profiling.Track("engine.Update")(); e.update(dt) }()
	}
	e.lastFrame = start

	e.frameLock.Lock()
	err := e.renderViews()
	e.frameLock.Unlock()

	func() { defer profiling.Track("engine.SwapBuffers")(); e.surface.SwapBuffers() }()
	e.frames.Add(1)

	if d := time.Since(start); e.slowFrame > 0 && d > e.slowFrame {
		logger.Warningf("slow frame %d: %s (%s)", e.Frames(), profiling.FormatMs(d), profiling.TopN(5))
	}
	return err
}

func (e *Engine) syncSurfaceSize() {
	w, h := e.surface.Size()
	if w == e.width && h == e.height {
		return
	}
	e.width, e.height = w, h
	for _, v := range e.views {
		v.SetSurfaceSize(w, h)
	}
}

func (e *Engine) renderViews() error {
	defer profiling.Track("engine.RenderViews")()
	slices.SortStableFunc(e.views, func(a, b *scene.View) int {
		return a.DepthOrder() - b.DepthOrder()
	})
	for _, v := range e.views {
		if err := v.RenderFrame(); err != nil {
			return err
		}
	}
	return nil
}

// schedule emits a tick per frame interval. A tick that finds the previous
// frame still rendering is dropped.
func (e *Engine) schedule(ctx context.Context) {
	limiter := NewLimiter(e.fps)
	for ctx.Err() == nil {
		if limiter.Wait(ctx) == 0 {
			select {
			case e.ticks <- struct{}{}:
			case <-ctx.Done():
				return
			}
			continue
		}
		probe, cancel := context.WithTimeout(ctx, time.Millisecond)
		free := e.frameLock.TryLock(probe)
		cancel()
		if !free {
			e.dropped.Add(1)
			continue
		}
		e.frameLock.Unlock()
		select {
		case e.ticks <- struct{}{}:
		case <-ctx.Done():
			return
		default:
			// a tick is already pending
			e.dropped.Add(1)
		}
	}
}

// Run renders frames until ctx is done or the surface asks to close. It
// must be called on the thread that owns the graphics context. Failed
// frames are logged and counted; the loop keeps going.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go e.schedule(ctx)

	logger.Noticef("running %d views", len(e.views))
	for !e.surface.ShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		case <-e.ticks:
		}
		if err := e.RenderOnce(); err != nil {
			e.failed.Add(1)
			logger.Errorf("frame %d failed: %v", e.Frames(), err)
		}
	}
	logger.Noticef("surface closed after %d frames (%d dropped, %d failed)", e.Frames(), e.Dropped(), e.Failed())
	return nil
}

// RunFrames renders n frames back to back without the scheduler.
func (e *Engine) RunFrames(n int) error {
	for i := 0; i < n; i++ {
		if err := e.RenderOnce(); err != nil {
			e.failed.Add(1)
			return fmt.Errorf("frame %d: %w", e.Frames(), err)
		}
	}
	return nil
}
