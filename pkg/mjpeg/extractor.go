// Package mjpeg pulls individual JPEG frames out of a motion-JPEG byte stream.
package mjpeg

import "bytes"

// DefaultMaxBuffer bounds the bytes held while waiting for a complete frame.
const DefaultMaxBuffer = 4 << 20

var (
	startMarker = []byte{0xff, 0xd8}
	endMarker   = []byte{0xff, 0xd9}
)

// Extractor accumulates stream bytes and splits them into JPEG frames
// delimited by the start-of-image and end-of-image markers. It only depends
// on the markers, not on the transport framing around them (multipart
// headers are skipped as garbage between frames).
//
// An Extractor is not safe for concurrent use.
type Extractor struct {
	buf     []byte
	max     int
	resyncs int
}

// NewExtractor creates an extractor that never holds more than maxBuffer
// bytes. A non-positive maxBuffer uses DefaultMaxBuffer.
func NewExtractor(maxBuffer int) *Extractor {
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBuffer
	}
	return &Extractor{max: maxBuffer}
}

// Feed appends stream bytes. If the buffer exceeds its bound without
// holding a complete frame it is resynchronised: bytes before the last start
// marker are dropped, or, when there is no usable start marker, everything
// but the final byte.
func (e *Extractor) Feed(p []byte) {
	e.buf = append(e.buf, p...)
	if len(e.buf) > e.max && !e.complete() {
		e.resync()
	}
}

func (e *Extractor) complete() bool {
	start, end := e.bounds()
	return start >= 0 && end >= 0
}

// bounds locates the first frame; end is the index just past its end marker.
func (e *Extractor) bounds() (start, end int) {
	start = bytes.Index(e.buf, startMarker)
	if start < 0 {
		return -1, -1
	}
	end = bytes.Index(e.buf[start+len(startMarker):], endMarker)
	if end < 0 {
		return start, -1
	}
	return start, end + start + len(startMarker) + len(endMarker)
}

// Next returns the first complete frame in the buffer, markers included,
// and drops everything up to and including its end marker. It returns nil
// when no start marker is present or the frame has not ended yet; the
// buffer is left unchanged in that case.
func (e *Extractor) Next() []byte {
	start, end := e.bounds()
	if start < 0 || end < 0 {
		return nil
	}

	frame := make([]byte, end-start)
	copy(frame, e.buf[start:end])

	rest := copy(e.buf, e.buf[end:])
	e.buf = e.buf[:rest]
	return frame
}

// Buffered returns the number of bytes waiting for a frame to complete.
func (e *Extractor) Buffered() int {
	return len(e.buf)
}

// Pending returns a copy of the bytes waiting for a frame to complete.
func (e *Extractor) Pending() []byte {
	return bytes.Clone(e.buf)
}

// Resyncs returns how many times the buffer bound forced data to be dropped.
func (e *Extractor) Resyncs() int {
	return e.resyncs
}

// Reset discards all buffered bytes.
func (e *Extractor) Reset() {
	e.buf = e.buf[:0]
}

func (e *Extractor) resync() {
	e.resyncs++

	keep := len(e.buf) - 1
	if start := bytes.LastIndex(e.buf, startMarker); start > 0 && len(e.buf)-start <= e.max {
		keep = start
	}

	rest := copy(e.buf, e.buf[keep:])
	e.buf = e.buf[:rest]
}
