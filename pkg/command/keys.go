// Package command turns keyboard state into the wire commands understood by
// the robot's microcontroller.
package command

import "strings"

// Key identifies a control key on the ground station keyboard.
type Key uint8

// Control keys. The comment on each names the physical key it is bound to.
const (
	DriveUp     Key = iota // W
	DriveDown              // S
	DriveLeft              // A
	DriveRight             // D
	CameraUp               // up arrow
	CameraDown             // down arrow
	CameraLeft             // left arrow
	CameraRight            // right arrow
	Flashlight             // F
	TrimUp                 // E
	TrimDown               // C
	Help                   // H
	HUD                    // T
	Quit                   // Esc

	numKeys
)

var keyNames = [numKeys]string{
	DriveUp:     "drive_up",
	DriveDown:   "drive_down",
	DriveLeft:   "drive_left",
	DriveRight:  "drive_right",
	CameraUp:    "camera_up",
	CameraDown:  "camera_down",
	CameraLeft:  "camera_left",
	CameraRight: "camera_right",
	Flashlight:  "flashlight",
	TrimUp:      "trim_up",
	TrimDown:    "trim_down",
	Help:        "help",
	HUD:         "hud",
	Quit:        "quit",
}

func (k Key) String() string {
	if k >= numKeys {
		return "unknown"
	}
	return keyNames[k]
}

// AllKeys returns every control key in declaration order.
func AllKeys() []Key {
	keys := make([]Key, 0, numKeys)
	for k := Key(0); k < numKeys; k++ {
		keys = append(keys, k)
	}
	return keys
}

// KeyboardState is a snapshot of which control keys are held down.
// The zero value has no keys pressed.
type KeyboardState uint32

// NewKeyboardState returns a state with the given keys pressed.
func NewKeyboardState(keys ...Key) KeyboardState {
	var s KeyboardState
	for _, k := range keys {
		s = s.With(k)
	}
	return s
}

// With returns a copy of s with k pressed.
func (s KeyboardState) With(k Key) KeyboardState {
	if k >= numKeys {
		return s
	}
	return s | 1<<k
}

// Down reports whether k is pressed.
func (s KeyboardState) Down(k Key) bool {
	return k < numKeys && s&(1<<k) != 0
}

// Empty reports whether no key is pressed.
func (s KeyboardState) Empty() bool {
	return s == 0
}

func (s KeyboardState) String() string {
	var names []string
	for _, k := range AllKeys() {
		if s.Down(k) {
			names = append(names, k.String())
		}
	}
	return "[" + strings.Join(names, " ") + "]"
}
