package main

import "github.com/gwillem/envirobot/pkg/command"

// keyBindings maps bubbletea key names to robot keys.
var keyBindings = map[string]command.Key{
	"w":      command.DriveUp,
	"s":      command.DriveDown,
	"a":      command.DriveLeft,
	"d":      command.DriveRight,
	"up":     command.CameraUp,
	"down":   command.CameraDown,
	"left":   command.CameraLeft,
	"right":  command.CameraRight,
	"f":      command.Flashlight,
	"e":      command.TrimUp,
	"c":      command.TrimDown,
	"h":      command.Help,
	"t":      command.HUD,
	"esc":    command.Quit,
	"q":      command.Quit,
	"ctrl+c": command.Quit,
}

// keyFor resolves a key event. Upper case letters count as their lower
// case key so caps lock does not stop the robot.
func keyFor(name string) (command.Key, bool) {
	if k, ok := keyBindings[name]; ok {
		return k, true
	}
	if len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z' {
		k, ok := keyBindings[string(name[0]+'a'-'A')]
		return k, ok
	}
	return 0, false
}
