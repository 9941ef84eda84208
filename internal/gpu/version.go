package gpu

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ContextVersion identifies a graphics API level. Values are ordered by
// capability, so plain comparison operators apply.
type ContextVersion int

const (
	NoContext ContextVersion = iota
	GLES20
	GLES30
	GLES31
	GLES32
)

const (
	// MinVersion is the least capable context the engine runs on.
	MinVersion = GLES20
	// MaxVersion is the most capable context the engine knows about.
	MaxVersion = GLES32
)

func (v ContextVersion) String() string {
	switch v {
	case NoContext:
		return "none"
	case GLES20:
		return "GLES 2.0"
	case GLES30:
		return "GLES 3.0"
	case GLES31:
		return "GLES 3.1"
	case GLES32:
		return "GLES 3.2"
	}
	return fmt.Sprintf("ContextVersion(%d)", int(v))
}

// Major returns the major API number.
func (v ContextVersion) Major() int {
	switch v {
	case GLES20:
		return 2
	case GLES30, GLES31, GLES32:
		return 3
	}
	return 0
}

// Minor returns the minor API number.
func (v ContextVersion) Minor() int {
	switch v {
	case GLES31:
		return 1
	case GLES32:
		return 2
	}
	return 0
}

// CompatibleWith reports whether something requiring v can run on a context
// of version current.
func (v ContextVersion) CompatibleWith(current ContextVersion) bool {
	return v != NoContext && current != NoContext && v <= current
}

// ParseVersionNumber parses a "major.minor" ES level such as "3.1".
func ParseVersionNumber(s string) (ContextVersion, error) {
	sv, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return NoContext, fmt.Errorf("gpu: bad version %q: %w", s, err)
	}
	switch {
	case sv.Major() == 2:
		return GLES20, nil
	case sv.Major() == 3 && sv.Minor() == 0:
		return GLES30, nil
	case sv.Major() == 3 && sv.Minor() == 1:
		return GLES31, nil
	case sv.Major() == 3 && sv.Minor() >= 2:
		return GLES32, nil
	}
	return NoContext, fmt.Errorf("gpu: %w: ES %s", ErrUnsupportedVersion, sv.String())
}

// ParseVersion maps a GL_VERSION string to the ES level it provides.
// ES strings look like "OpenGL ES 3.1 build..."; desktop strings like
// "4.1 Metal - 76.3". Desktop cores are mapped to the ES level they are a
// superset of.
func ParseVersion(glVersion string) (ContextVersion, error) {
	s := strings.TrimSpace(glVersion)
	if rest, ok := strings.CutPrefix(s, "OpenGL ES"); ok {
		rest = strings.TrimPrefix(strings.TrimSpace(rest), "-CM ")
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return NoContext, fmt.Errorf("gpu: empty ES version in %q", glVersion)
		}
		return ParseVersionNumber(fields[0])
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return NoContext, fmt.Errorf("gpu: empty version string")
	}
	sv, err := semver.NewVersion(fields[0])
	if err != nil {
		return NoContext, fmt.Errorf("gpu: bad version %q: %w", glVersion, err)
	}
	switch {
	case sv.Major() > 4 || (sv.Major() == 4 && sv.Minor() >= 5):
		return GLES32, nil
	case sv.Major() == 4 && sv.Minor() >= 3:
		return GLES31, nil
	case sv.Major() == 4 || (sv.Major() == 3 && sv.Minor() >= 3):
		return GLES30, nil
	case sv.Major() >= 2:
		return GLES20, nil
	}
	return NoContext, fmt.Errorf("gpu: %w: GL %s", ErrUnsupportedVersion, sv.String())
}
