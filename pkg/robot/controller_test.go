package robot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPort replays canned read results.
type scriptedPort struct {
	reads    [][]byte
	readErr  error
	written  []byte
	timeout  time.Duration
	closed   bool
	writeErr error
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	if len(p.reads) == 0 {
		if p.readErr != nil {
			return 0, p.readErr
		}
		return 0, nil
	}
	n := copy(b, p.reads[0])
	p.reads[0] = p.reads[0][n:]
	if len(p.reads[0]) == 0 {
		p.reads = p.reads[1:]
	}
	return n, nil
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, b...)
	return len(b), nil
}

func (p *scriptedPort) SetReadTimeout(d time.Duration) error {
	p.timeout = d
	return nil
}

func (p *scriptedPort) Close() error {
	p.closed = true
	return nil
}

func TestController_Exchange(t *testing.T) {
	t.Parallel()

	port := &scriptedPort{reads: [][]byte{[]byte("23C,54"), []byte("%,120cm,75%PWM\r\n")}}
	c, err := NewController(port, "/dev/ttyACM0", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultReadTimeout, port.timeout)

	line, err := c.Exchange("1F00")
	require.NoError(t, err)
	assert.Equal(t, "23C,54%,120cm,75%PWM\r\n", line)
	assert.Equal(t, "1F00\r", string(port.written))
}

func TestController_ExchangeTimeout(t *testing.T) {
	t.Parallel()

	port := &scriptedPort{reads: [][]byte{[]byte("23C,")}}
	c, err := NewController(port, "sim", 50*time.Millisecond)
	require.NoError(t, err)

	line, err := c.Exchange("0000")
	require.NoError(t, err)
	assert.Equal(t, "23C,", line, "partial line returned on timeout")

	line, err = c.Exchange("0000")
	require.NoError(t, err)
	assert.Empty(t, line)
}

func TestController_ExchangeErrors(t *testing.T) {
	t.Parallel()

	c, err := NewController(&scriptedPort{writeErr: errors.New("unplugged")}, "x", 0)
	require.NoError(t, err)
	_, err = c.Exchange("0000")
	require.ErrorContains(t, err, "write command")

	c, err = NewController(&scriptedPort{readErr: errors.New("io")}, "x", 0)
	require.NoError(t, err)
	_, err = c.Exchange("0000")
	require.ErrorContains(t, err, "read reply")
}

func TestController_WithSimulator(t *testing.T) {
	t.Parallel()

	sim := NewSimulator()
	c, err := NewController(sim, "sim", 0)
	require.NoError(t, err)

	line, err := c.Exchange("0F0U")
	require.NoError(t, err)
	assert.Equal(t, "23C,75%,120cm,51%PWM\r\n", line)
	assert.True(t, sim.Flashlight())

	require.NoError(t, c.Close())
	_, err = c.Exchange("0000")
	require.Error(t, err)
}
