package robot

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gwillem/envirobot/pkg/helpers/syncutil"
)

// PWM duty limits of the drive motors, in timer counts.
const (
	pwmUpper = 0xC000
	pwmLower = 0x2000
	pwmStep  = 0x100
)

// Simulator stands in for the microcontroller when no hardware is attached.
// It accepts the same command lines and replies in the firmware's format,
// "<temp>C,<light>%,<dist>cm,<pwm>%PWM\r\n". Like the firmware it only
// answers lines longer than three characters.
type Simulator struct {
	mu       syncutil.Mutex
	in       []byte
	out      []byte
	closed   bool
	tempC    int
	ambient  int
	flash    bool
	distance int
	dcPWM    int
	percent  int
	received []string
}

// NewSimulator returns a simulator with the firmware's power-on state.
func NewSimulator() *Simulator {
	dc := (pwmUpper + pwmLower) / 2
	return &Simulator{
		tempC:    23,
		ambient:  35,
		distance: 120,
		dcPWM:    dc,
		percent:  mapRange(dc, pwmLower, pwmUpper, 0, 100),
	}
}

var errSimulatorClosed = errors.New("simulator closed")

// Write consumes command bytes; each '\r' or '\n' ends a command.
func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errSimulatorClosed
	}
	for _, b := range p {
		s.in = append(s.in, b)
		if b != '\r' && b != '\n' {
			continue
		}
		line := s.in
		s.in = nil
		// the terminator counts towards the firmware's length check
		if len(line) > 3 {
			s.handle(string(bytes.TrimRight(line, "\r\n")))
		}
	}
	return len(p), nil
}

// Read returns pending reply bytes. With nothing pending it returns 0 bytes
// and no error, as a serial port does when its read timeout expires.
func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errSimulatorClosed
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// SetReadTimeout is a no-op; reads never block.
func (*Simulator) SetReadTimeout(time.Duration) error {
	return nil
}

// Close marks the simulator closed.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Received returns the commands handled so far.
func (s *Simulator) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// Flashlight reports whether the simulated flashlight is on.
func (s *Simulator) Flashlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flash
}

func (s *Simulator) handle(cmd string) {
	s.received = append(s.received, cmd)
	if len(cmd) >= 4 {
		s.flash = cmd[1] == 'F'
		s.trim(cmd[3])
		s.drive(cmd[0])
	}

	light := s.ambient
	if s.flash {
		light = min(light+40, 100)
	}
	s.out = append(s.out, fmt.Sprintf("%dC,%d%%,%dcm,%d%%PWM\r\n",
		s.tempC, light, s.distance, s.percent)...)
}

func (s *Simulator) trim(code byte) {
	switch code {
	case 'D':
		s.dcPWM = min(s.dcPWM+pwmStep, pwmUpper)
	case 'U':
		s.dcPWM = max(s.dcPWM-pwmStep, pwmLower)
	default:
		return
	}
	// a lower duty count drives the motors faster
	s.percent = mapRange(s.dcPWM, pwmLower, pwmUpper, 100, 0)
}

func (s *Simulator) drive(code byte) {
	switch code {
	case '1', '5', '6':
		s.distance = max(s.distance-1, 5)
	case '2', '7', '8':
		s.distance = min(s.distance+1, 300)
	}
}

func mapRange(v, fromLow, fromHigh, toLow, toHigh int) int {
	v = max(fromLow, min(v, fromHigh))
	return (v-fromLow)*(toHigh-toLow)/(fromHigh-fromLow) + toLow
}
