package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/envirobot/pkg/robot"
)

type Options struct {
	Config  string         `long:"config" short:"c" default:"envirobot.toml" description:"Configuration file"`
	Station StationCommand `command:"station" alias:"hud" description:"Run the ground station: video, HUD and keyboard control"`
	Relay   RelayCommand   `command:"relay" description:"Run the relay on the robot, bridging the station to the microcontroller"`
	Setup   SetupCommand   `command:"setup" description:"Pick the serial port and addresses and write the configuration file"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func loadConfig() (*robot.Config, error) {
	return robot.LoadConfigFrom(opts.Config)
}

func main() {
	parser.LongDescription = "EnviroBot - teleoperation link between a ground station and the robot"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
