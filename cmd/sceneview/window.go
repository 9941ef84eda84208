package main

import (
	"fmt"
	"time"

	"sceneview/internal/gpu/gles"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type windowOptions struct {
	title         string
	width, height int
	visible       bool
}

// openWindow brings up glfw and a 4.1 core context. Window creation is
// retried since a display server that is still starting refuses it.
func openWindow(o windowOptions) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	window, err := backoff.RetryNotifyWithData(func() (*glfw.Window, error) {
		glfw.DefaultWindowHints()
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		if !o.visible {
			glfw.WindowHint(glfw.Visible, glfw.False)
		}
		return glfw.CreateWindow(o.width, o.height, o.title, nil, nil)
	}, b, func(err error, next time.Duration) {
		logger.Warningf("window: %v; retrying in %s", err, next)
	})
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gl: %w", err)
	}
	// the engine paces frames itself
	glfw.SwapInterval(0)
	return window, nil
}

func closeWindow(window *glfw.Window) {
	window.Destroy()
	glfw.Terminate()
}

// openDevice opens a hidden window and a GL device on it.
func openDevice(title string, width, height int) (*glfw.Window, *gles.Device, error) {
	window, err := openWindow(windowOptions{title: title, width: width, height: height})
	if err != nil {
		return nil, nil, err
	}
	device, err := gles.NewDevice()
	if err != nil {
		closeWindow(window)
		return nil, nil, err
	}
	return window, device, nil
}

// windowSurface presents to a glfw window.
type windowSurface struct {
	window *glfw.Window
}

func (s windowSurface) Size() (int, int) { return s.window.GetFramebufferSize() }
func (s windowSurface) PollEvents()      { glfw.PollEvents() }
func (s windowSurface) SwapBuffers()     { s.window.SwapBuffers() }
func (s windowSurface) ShouldClose() bool {
	return s.window.ShouldClose()
}
