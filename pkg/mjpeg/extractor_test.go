package mjpeg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(payload string) []byte {
	f := append([]byte{}, startMarker...)
	f = append(f, payload...)
	return append(f, endMarker...)
}

func TestExtractor_SingleFrame(t *testing.T) {
	t.Parallel()

	want := frame("hello")
	e := NewExtractor(0)
	e.Feed(want)

	got := e.Next()
	assert.Equal(t, want, got)
	assert.Nil(t, e.Next())
	assert.Zero(t, e.Buffered())
}

func TestExtractor_ChunkedFrame(t *testing.T) {
	t.Parallel()

	want := frame("some jpeg payload")
	for size := 1; size <= len(want); size++ {
		e := NewExtractor(0)
		var frames [][]byte
		for i := 0; i < len(want); i += size {
			e.Feed(want[i:min(i+size, len(want))])
			if f := e.Next(); f != nil {
				frames = append(frames, f)
			}
		}
		require.Len(t, frames, 1, "chunk size %d", size)
		assert.Equal(t, want, frames[0])
	}
}

func TestExtractor_StartWithoutEnd(t *testing.T) {
	t.Parallel()

	e := NewExtractor(0)
	e.Feed(startMarker)

	assert.Nil(t, e.Next())
	assert.Equal(t, startMarker, e.Pending())

	e.Feed([]byte("partial"))
	assert.Nil(t, e.Next())
	assert.Equal(t, append(bytes.Clone(startMarker), "partial"...), e.Pending())
}

func TestExtractor_NoStartLeavesBufferUnchanged(t *testing.T) {
	t.Parallel()

	e := NewExtractor(0)
	e.Feed([]byte("--boundary\r\nContent-Type: image/jpeg\r\n\r\n"))

	assert.Nil(t, e.Next())
	assert.Equal(t, 40, e.Buffered())
}

func TestExtractor_EndBeforeStart(t *testing.T) {
	t.Parallel()

	e := NewExtractor(0)
	// tail of a frame we joined mid-way, then a real frame
	e.Feed([]byte{0x01, 0x02, 0xff, 0xd9, 0x03})
	e.Feed(frame("real"))

	assert.Equal(t, frame("real"), e.Next())
	assert.Zero(t, e.Buffered(), "spurious end marker discarded with the frame")
}

func TestExtractor_EndMarkerSearchStartsAfterStart(t *testing.T) {
	t.Parallel()

	// FFD8 D9: the D8/FF overlap must not count as an end marker
	e := NewExtractor(0)
	e.Feed([]byte{0xff, 0xd8, 0xd9})
	assert.Nil(t, e.Next())

	e.Feed([]byte{0xff, 0xd9})
	assert.Equal(t, []byte{0xff, 0xd8, 0xd9, 0xff, 0xd9}, e.Next())
}

func TestExtractor_KeepsTrailingBytes(t *testing.T) {
	t.Parallel()

	e := NewExtractor(0)
	e.Feed(append(frame("one"), 0xff, 0xd8, 'x'))

	assert.Equal(t, frame("one"), e.Next())
	assert.Equal(t, []byte{0xff, 0xd8, 'x'}, e.Pending())
}

func TestExtractor_ThreeFramesArbitraryChunks(t *testing.T) {
	t.Parallel()

	frames := [][]byte{frame("first"), frame("second frame"), frame("third!")}
	var stream []byte
	for _, f := range frames {
		stream = append(stream, "\r\n--boundarydonotcross\r\n\r\n"...)
		stream = append(stream, f...)
	}

	for _, sizes := range [][]int{{1}, {3, 7}, {2048}, {5, 1, 13, 2}} {
		e := NewExtractor(0)
		var got [][]byte
		for i, n := 0, 0; i < len(stream); n++ {
			size := sizes[n%len(sizes)]
			e.Feed(stream[i:min(i+size, len(stream))])
			i += size
			for f := e.Next(); f != nil; f = e.Next() {
				got = append(got, f)
			}
		}
		assert.Equal(t, frames, got, "chunk sizes %v", sizes)
	}
}

func TestExtractor_BoundedWithoutStart(t *testing.T) {
	t.Parallel()

	e := NewExtractor(64)
	junk := bytes.Repeat([]byte{0x00, 0x11, 0xff}, 10)
	for range 100 {
		e.Feed(junk)
		assert.Nil(t, e.Next())
		assert.LessOrEqual(t, e.Buffered(), 64)
	}
	assert.Positive(t, e.Resyncs())
}

func TestExtractor_ResyncKeepsLastStart(t *testing.T) {
	t.Parallel()

	e := NewExtractor(32)
	e.Feed(bytes.Repeat([]byte{'a'}, 30))
	e.Feed([]byte{0xff, 0xd8, 'b', 'c'})

	assert.Equal(t, 1, e.Resyncs())
	assert.Equal(t, []byte{0xff, 0xd8, 'b', 'c'}, e.Pending())

	e.Feed(endMarker)
	assert.Equal(t, []byte{0xff, 0xd8, 'b', 'c', 0xff, 0xd9}, e.Next())
}

func TestExtractor_OversizedFrameDropped(t *testing.T) {
	t.Parallel()

	e := NewExtractor(16)
	e.Feed(startMarker)
	e.Feed(bytes.Repeat([]byte{'z'}, 20))

	assert.Equal(t, 1, e.Buffered())
	assert.Nil(t, e.Next())

	e.Feed(frame("ok"))
	assert.Equal(t, frame("ok"), e.Next())
}

func TestExtractor_SplitMarkerSurvivesResync(t *testing.T) {
	t.Parallel()

	e := NewExtractor(8)
	e.Feed([]byte{1, 2, 3, 4, 5, 6, 7, 8, 0xff})
	assert.Equal(t, []byte{0xff}, e.Pending())

	e.Feed([]byte{0xd8, 'p', 0xff, 0xd9})
	assert.Equal(t, []byte{0xff, 0xd8, 'p', 0xff, 0xd9}, e.Next())
}

func TestExtractor_CompleteFrameNotResynced(t *testing.T) {
	t.Parallel()

	e := NewExtractor(8)
	e.Feed(append(frame("0123456789"), frame("x")...))

	assert.Zero(t, e.Resyncs())
	assert.Equal(t, frame("0123456789"), e.Next())
	assert.Equal(t, frame("x"), e.Next())
}

func TestExtractor_Reset(t *testing.T) {
	t.Parallel()

	e := NewExtractor(0)
	e.Feed(startMarker)
	e.Reset()
	assert.Zero(t, e.Buffered())
}
