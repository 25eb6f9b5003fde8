// Package envirobot is a teleoperation link for the EnviroBot rover.
//
// A ground station shows the robot's MJPEG camera stream in the terminal
// with a telemetry HUD on top and turns the keyboard into drive, camera,
// flashlight and motor speed commands. A relay on the robot forwards those
// commands to the microcontroller over its serial line and returns the
// sensor readings.
//
// # Installation
//
//	go install github.com/gwillem/envirobot/cmd/envirobot@latest
//
// # Usage
//
// Pick the serial port and addresses once:
//
//	envirobot setup
//
// Start the station, then the relay on the robot:
//
//	envirobot station
//	envirobot relay
//
// Without hardware the relay can answer with a simulated microcontroller:
//
//	envirobot relay --simulate --station localhost:5005
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/envirobot: CLI with station, relay and setup commands
//   - pkg/command: keyboard state and the 4-byte wire command
//   - pkg/mjpeg: frame extraction, decoding and the HTTP stream
//   - pkg/telemetry: sensor line parsing and MQTT publishing
//   - pkg/hud: HUD state and terminal frame rendering
//   - pkg/teleop: the station's session with the relay
//   - pkg/relay: the robot side bridge to the microcontroller
//   - pkg/robot: serial controller, simulator, port discovery and configuration
package envirobot
