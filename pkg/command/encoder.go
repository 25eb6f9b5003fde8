package command

import (
	"fmt"
	"time"

	"github.com/gwillem/envirobot/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
)

// Axis codes shared by the drive and camera axes.
const (
	CodeNone      byte = '0'
	CodeUp        byte = '1'
	CodeDown      byte = '2'
	CodeLeft      byte = '3'
	CodeRight     byte = '4'
	CodeUpLeft    byte = '5'
	CodeUpRight   byte = '6'
	CodeDownLeft  byte = '7'
	CodeDownRight byte = '8'

	CodeFlashlight byte = 'F'
	CodeTrimUp     byte = 'U'
	CodeTrimDown   byte = 'D'
	CodeQuit       byte = 'Q'
)

// Width is the length of every wire command.
const Width = 4

// DefaultDebounce is how long repeat activations of a toggle key are ignored.
const DefaultDebounce = 200 * time.Millisecond

// Command holds one code per control axis. Its wire form is the four codes
// in the order drive, flashlight, camera, motor trim.
type Command struct {
	Drive      byte
	Flashlight byte
	Camera     byte
	Trim       byte
}

// Neutral is the command with every axis idle. The relay sends it to the
// microcontroller when the session ends so the robot stops.
var Neutral = Command{Drive: CodeNone, Flashlight: CodeNone, Camera: CodeNone, Trim: CodeNone}

// QuitCommand terminates the session. Only the drive slot carries the
// sentinel, so the command keeps the fixed width.
var QuitCommand = Command{Drive: CodeQuit, Flashlight: CodeNone, Camera: CodeNone, Trim: CodeNone}

// IsQuit reports whether c is the termination sentinel.
func (c Command) IsQuit() bool {
	return c.Drive == CodeQuit
}

func (c Command) String() string {
	return string([]byte{c.Drive, c.Flashlight, c.Camera, c.Trim})
}

// Parse decodes a wire command.
func Parse(s string) (Command, error) {
	if len(s) != Width {
		return Command{}, fmt.Errorf("command %q: want %d characters, got %d", s, Width, len(s))
	}
	c := Command{Drive: s[0], Flashlight: s[1], Camera: s[2], Trim: s[3]}
	if c.IsQuit() {
		return QuitCommand, nil
	}
	if !isDirection(c.Drive) {
		return Command{}, fmt.Errorf("command %q: bad drive code %q", s, c.Drive)
	}
	if c.Flashlight != CodeNone && c.Flashlight != CodeFlashlight {
		return Command{}, fmt.Errorf("command %q: bad flashlight code %q", s, c.Flashlight)
	}
	if !isDirection(c.Camera) {
		return Command{}, fmt.Errorf("command %q: bad camera code %q", s, c.Camera)
	}
	if c.Trim != CodeNone && c.Trim != CodeTrimUp && c.Trim != CodeTrimDown {
		return Command{}, fmt.Errorf("command %q: bad trim code %q", s, c.Trim)
	}
	return c, nil
}

func isDirection(b byte) bool {
	return b >= CodeNone && b <= CodeDownRight
}

// Toggles are the latched on/off states driven by toggle keys.
type Toggles struct {
	Flashlight bool
	Help       bool
	HUD        bool
}

type toggle struct {
	on   bool
	last time.Time
	set  bool
}

// press flips the toggle unless it already flipped within the debounce window.
func (t *toggle) press(now time.Time, debounce time.Duration) {
	if t.set && now.Sub(t.last) < debounce {
		return
	}
	t.on = !t.on
	t.last = now
	t.set = true
}

// Encoder maps keyboard state to commands. Toggle keys are latched and
// debounced against the encoder's clock instead of sleeping.
type Encoder struct {
	clock    clockwork.Clock
	debounce time.Duration

	mu         syncutil.Mutex
	flashlight toggle
	help       toggle
	hud        toggle
	quit       bool
}

// EncoderConfig configures an Encoder.
type EncoderConfig struct {
	Clock    clockwork.Clock
	Debounce time.Duration
}

// NewEncoder creates an encoder with the HUD visible, help hidden and the
// flashlight off.
func NewEncoder(cfg EncoderConfig) *Encoder {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Encoder{
		clock:    cfg.Clock,
		debounce: cfg.Debounce,
		hud:      toggle{on: true},
	}
}

// Encode produces the command for one poll cycle.
func (e *Encoder) Encode(s KeyboardState) Command {
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if s.Down(Flashlight) {
		e.flashlight.press(now, e.debounce)
	}
	if s.Down(Help) {
		e.help.press(now, e.debounce)
	}
	if s.Down(HUD) {
		e.hud.press(now, e.debounce)
	}

	if s.Down(Quit) {
		e.quit = true
		return QuitCommand
	}

	c := Command{
		Drive:      direction(s, DriveUp, DriveDown, DriveLeft, DriveRight),
		Flashlight: CodeNone,
		Camera:     direction(s, CameraUp, CameraDown, CameraLeft, CameraRight),
		Trim:       trim(s),
	}
	if e.flashlight.on {
		c.Flashlight = CodeFlashlight
	}
	return c
}

// Toggles returns the current latched toggle states.
func (e *Encoder) Toggles() Toggles {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Toggles{
		Flashlight: e.flashlight.on,
		Help:       e.help.on,
		HUD:        e.hud.on,
	}
}

// Quitting reports whether the quit key has been seen.
func (e *Encoder) Quitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quit
}

// direction resolves four keys to an 8-way code. Diagonals win over single
// directions and are checked in a fixed order.
func direction(s KeyboardState, up, down, left, right Key) byte {
	u, d, l, r := s.Down(up), s.Down(down), s.Down(left), s.Down(right)
	switch {
	case d && r:
		return CodeDownRight
	case d && l:
		return CodeDownLeft
	case u && r:
		return CodeUpRight
	case u && l:
		return CodeUpLeft
	case r:
		return CodeRight
	case l:
		return CodeLeft
	case d:
		return CodeDown
	case u:
		return CodeUp
	}
	return CodeNone
}

func trim(s KeyboardState) byte {
	switch {
	case s.Down(TrimUp):
		return CodeTrimUp
	case s.Down(TrimDown):
		return CodeTrimDown
	}
	return CodeNone
}
