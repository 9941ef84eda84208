package gpu

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Capabilities is a snapshot of what the current graphics context supports.
// It is queried once per context and passed to whoever needs it.
type Capabilities struct {
	Version       ContextVersion
	VersionString string
	Vendor        string
	Renderer      string
	Extensions    []string

	MaxTextureSize        int
	MaxRenderbufferSize   int
	MaxSamples            int
	MaxColorAttachments   int
	MaxDrawBuffers        int
	MaxTextureImageUnits  int
	MaxViewportWidth      int
	MaxViewportHeight     int
	MaxCombinedTextureUse int
}

// Supports reports whether the context satisfies the required version.
func (c Capabilities) Supports(required ContextVersion) bool {
	return required.CompatibleWith(c.Version)
}

// Verify fails with ErrUnsupportedVersion if required is not available.
func (c Capabilities) Verify(required ContextVersion) error {
	if !c.Supports(required) {
		return fmt.Errorf("%w: need %s, context is %s", ErrUnsupportedVersion, required, c.Version)
	}
	return nil
}

// HasExtension reports whether the named extension is advertised.
func (c Capabilities) HasExtension(name string) bool {
	return slices.Contains(c.Extensions, name)
}

// VerifyExtension fails with ErrUnsupportedCapability if the extension is missing.
func (c Capabilities) VerifyExtension(name string) error {
	if !c.HasExtension(name) {
		return fmt.Errorf("%w: extension %s", ErrUnsupportedCapability, name)
	}
	return nil
}

// CheckAttachment validates a buffer request against the context limits.
func (c Capabilities) CheckAttachment(format Format, samples, width, height int) error {
	if err := c.Verify(format.MinVersion()); err != nil {
		return fmt.Errorf("format %s: %w", format, err)
	}
	if samples > 1 && samples > c.MaxSamples {
		return fmt.Errorf("%w: %d samples (max %d)", ErrUnsupportedCapability, samples, c.MaxSamples)
	}
	if c.MaxRenderbufferSize > 0 && (width > c.MaxRenderbufferSize || height > c.MaxRenderbufferSize) {
		return fmt.Errorf("%w: %dx%d buffer (max %d)", ErrUnsupportedCapability, width, height, c.MaxRenderbufferSize)
	}
	return nil
}

// CheckColorAttachments validates the number of simultaneous color outputs.
func (c Capabilities) CheckColorAttachments(n int) error {
	if n > 1 && (n > c.MaxColorAttachments || n > c.MaxDrawBuffers) {
		return fmt.Errorf("%w: %d color attachments (max %d/%d draw buffers)",
			ErrUnsupportedCapability, n, c.MaxColorAttachments, c.MaxDrawBuffers)
	}
	return nil
}

// Rows returns the snapshot as name/value pairs for display.
func (c Capabilities) Rows() [][]string {
	itoa := strconv.Itoa
	return [][]string{
		{"Version", c.Version.String()},
		{"GL_VERSION", c.VersionString},
		{"Vendor", c.Vendor},
		{"Renderer", c.Renderer},
		{"Max Texture Size", itoa(c.MaxTextureSize)},
		{"Max Renderbuffer Size", itoa(c.MaxRenderbufferSize)},
		{"Max Samples", itoa(c.MaxSamples)},
		{"Max Color Attachments", itoa(c.MaxColorAttachments)},
		{"Max Draw Buffers", itoa(c.MaxDrawBuffers)},
		{"Max Texture Image Units", itoa(c.MaxTextureImageUnits)},
		{"Max Combined Texture Units", itoa(c.MaxCombinedTextureUse)},
		{"Max Viewport", itoa(c.MaxViewportWidth) + "x" + itoa(c.MaxViewportHeight)},
		{"Extensions", strconv.Itoa(len(c.Extensions))},
	}
}

func (c Capabilities) String() string {
	var sb strings.Builder
	for _, row := range c.Rows() {
		fmt.Fprintf(&sb, "%-28s: %s\n", row[0], row[1])
	}
	return sb.String()
}
