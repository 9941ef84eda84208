package profiling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func record(name string, d time.Duration) {
	mu.Lock()
	frameTotals[name] += d
	frameCounts[name]++
	mu.Unlock()
}

func TestTrackAndReset(t *testing.T) {
	ResetFrame()
	stop := Track("frame")
	stop()
	Track("frame")()
	assert.Equal(t, 2, Count("frame"))
	assert.Contains(t, Snapshot(), "frame")

	ResetFrame()
	assert.Empty(t, Snapshot())
	assert.Zero(t, Count("frame"))
}

func TestSumAndTop(t *testing.T) {
	ResetFrame()
	defer ResetFrame()
	record("frame/chain0/pass0", 3*time.Millisecond)
	record("frame/chain0/pass1", 1500*time.Microsecond)
	record("scene.RenderFrame", 5*time.Millisecond)

	assert.Equal(t, 4500*time.Microsecond, SumWithPrefix("frame/chain0/"))
	assert.Zero(t, SumWithPrefix("engine."))

	top := Top(2)
	assert.Len(t, top, 2)
	assert.Equal(t, "scene.RenderFrame", top[0].Name)
	assert.Equal(t, 1, top[0].Count)
	assert.Len(t, Top(-1), 3)

	assert.Equal(t, "scene.RenderFrame:5ms, frame/chain0/pass0:3ms", TopN(2))
}

func TestFormatMs(t *testing.T) {
	assert.Equal(t, "1.5ms", FormatMs(1500*time.Microsecond))
	assert.Equal(t, "0ms", FormatMs(0))
	assert.Equal(t, "12ms", FormatMs(12*time.Millisecond))
}
