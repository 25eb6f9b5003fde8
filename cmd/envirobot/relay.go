package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gwillem/envirobot/pkg/helpers"
	"github.com/gwillem/envirobot/pkg/relay"
	"github.com/gwillem/envirobot/pkg/robot"
)

type RelayCommand struct {
	Station  string `long:"station" description:"Station address host:port (overrides config)"`
	Port     string `long:"port" description:"Serial port of the microcontroller (overrides config)"`
	Simulate bool   `long:"simulate" description:"Answer with a simulated microcontroller instead of the serial port"`
}

func (c *RelayCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.Config, err)
	}
	if c.Station != "" {
		cfg.Robot.StationAddr = c.Station
	}
	if c.Port != "" {
		cfg.Robot.SerialPort = c.Port
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if err := helpers.InitLogging(helpers.LogPath(cfg.LogFile), cfg.DebugLogging, console); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	opener := relay.SerialOpener(robot.ControllerConfig{
		Port:        cfg.Robot.SerialPort,
		BaudRate:    cfg.Robot.BaudRate,
		ReadTimeout: cfg.Robot.ReadTimeout(),
	})
	settle := cfg.Robot.SettleDelay()
	if c.Simulate || cfg.Robot.SimulateController {
		log.Info().Msg("using simulated microcontroller")
		opener = relay.SimulatorOpener(robot.NewSimulator())
		settle = 0
	}

	r, err := relay.New(relay.Config{
		Dial:           relay.TCPDialer(cfg.Robot.StationAddr),
		Open:           opener,
		CycleDelay:     cfg.Robot.CycleDelay(),
		SettleDelay:    settle,
		ControllerPoll: cfg.Robot.ControllerPoll(),
		ReconnectDelay: cfg.Robot.ReconnectDelay(),
		IdleTimeout:    cfg.Robot.IdleTimeout(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("station", cfg.Robot.StationAddr).
		Str("serial", cfg.Robot.SerialPort).
		Msg("relay starting")

	err = r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("relay interrupted")
		return nil
	}
	return err
}
