package gles

import (
	"fmt"

	"sceneview/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

func getInt(name uint32) int {
	var v int32
	gl.GetIntegerv(name, &v)
	return int(v)
}

// QueryCapabilities snapshots the limits of the current context.
func QueryCapabilities() (gpu.Capabilities, error) {
	versionString := gl.GoStr(gl.GetString(gl.VERSION))
	version, err := gpu.ParseVersion(versionString)
	if err != nil {
		return gpu.Capabilities{}, fmt.Errorf("gles: %w", err)
	}

	caps := gpu.Capabilities{
		Version:               version,
		VersionString:         versionString,
		Vendor:                gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer:              gl.GoStr(gl.GetString(gl.RENDERER)),
		MaxTextureSize:        getInt(gl.MAX_TEXTURE_SIZE),
		MaxRenderbufferSize:   getInt(gl.MAX_RENDERBUFFER_SIZE),
		MaxSamples:            getInt(gl.MAX_SAMPLES),
		MaxColorAttachments:   getInt(gl.MAX_COLOR_ATTACHMENTS),
		MaxDrawBuffers:        getInt(gl.MAX_DRAW_BUFFERS),
		MaxTextureImageUnits:  getInt(gl.MAX_TEXTURE_IMAGE_UNITS),
		MaxCombinedTextureUse: getInt(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS),
	}
	var dims [2]int32
	gl.GetIntegerv(gl.MAX_VIEWPORT_DIMS, &dims[0])
	caps.MaxViewportWidth, caps.MaxViewportHeight = int(dims[0]), int(dims[1])

	n := getInt(gl.NUM_EXTENSIONS)
	caps.Extensions = make([]string, 0, n)
	for i := 0; i < n; i++ {
		caps.Extensions = append(caps.Extensions, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	return caps, nil
}
