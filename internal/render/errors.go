package render

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalState marks programmer errors: bad tree construction,
	// lifecycle misuse or impossible screen routing. It is raised by panic.
	ErrIllegalState = errors.New("render: illegal state")
	// ErrNoObjectRenderer is returned when nothing can draw an object for a
	// pipeline function.
	ErrNoObjectRenderer = errors.New("render: no object renderer")
)

func illegalState(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIllegalState}, args...)...)
}

func failIllegal(format string, args ...any) {
	panic(illegalState(format, args...))
}
