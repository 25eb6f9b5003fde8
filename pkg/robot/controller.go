// Package robot talks to the microcontroller that drives the robot's motors,
// servos, flashlight and sensors.
package robot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the microcontroller firmware.
const DefaultBaudRate = 57600

// DefaultReadTimeout bounds a single serial read.
const DefaultReadTimeout = 100 * time.Millisecond

const maxLine = 256

// Port is the part of a serial port the controller uses. serial.Port
// satisfies it.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Controller exchanges command lines with the microcontroller.
type Controller struct {
	port    Port
	name    string
	timeout time.Duration
}

// ControllerConfig configures OpenController.
type ControllerConfig struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// OpenController opens the serial port to the microcontroller.
func OpenController(cfg ControllerConfig) (*Controller, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	c, err := NewController(port, cfg.Port, cfg.ReadTimeout)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return c, nil
}

// NewController wraps an already open port.
func NewController(port Port, name string, readTimeout time.Duration) (*Controller, error) {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Controller{port: port, name: name, timeout: readTimeout}, nil
}

// Name returns the port name.
func (c *Controller) Name() string {
	return c.name
}

// Close closes the serial port.
func (c *Controller) Close() error {
	return c.port.Close()
}

// Exchange sends one command terminated by a carriage return and reads one
// reply line. The line keeps its terminator. If the microcontroller stays
// silent for the read timeout, whatever arrived so far is returned, which
// may be empty.
func (c *Controller) Exchange(cmd string) (string, error) {
	if _, err := io.WriteString(c.port, cmd+"\r"); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}
	return c.readLine()
}

func (c *Controller) readLine() (string, error) {
	var line []byte
	buf := make([]byte, 64)
	for len(line) < maxLine {
		n, err := c.port.Read(buf)
		if n > 0 {
			line = append(line, buf[:n]...)
			if i := bytes.IndexByte(line, '\n'); i >= 0 {
				// anything after the newline belongs to no request
				return string(line[:i+1]), nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				continue
			}
			return string(line), fmt.Errorf("read reply: %w", err)
		}
		if n == 0 {
			// read timeout
			return string(line), nil
		}
	}
	return string(line), nil
}
