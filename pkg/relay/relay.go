// Package relay runs on the robot. It bridges the ground station's TCP link
// to the microcontroller's serial line: each 4-byte command from the station
// is passed to the microcontroller and its sensor line is sent back.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gwillem/envirobot/pkg/command"
	"github.com/gwillem/envirobot/pkg/helpers/syncutil"
	"github.com/gwillem/envirobot/pkg/robot"
	"github.com/gwillem/envirobot/pkg/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrQuit is returned by Serve when the station sent the quit command.
var ErrQuit = errors.New("quit requested by station")

// State of the relay.
type State int32

const (
	// WaitingForController means the serial link is closed or still settling.
	WaitingForController State = iota
	Active
	Terminating
)

func (s State) String() string {
	switch s {
	case WaitingForController:
		return "waiting_for_controller"
	case Active:
		return "active"
	case Terminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// Dialer connects to the ground station.
type Dialer func(ctx context.Context) (net.Conn, error)

// Opener opens the microcontroller link.
type Opener func() (*robot.Controller, error)

// TCPDialer dials the station at addr.
func TCPDialer(addr string) Dialer {
	return func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial station %s: %w", addr, err)
		}
		return conn, nil
	}
}

// SerialOpener opens a real serial port.
func SerialOpener(cfg robot.ControllerConfig) Opener {
	return func() (*robot.Controller, error) {
		return robot.OpenController(cfg)
	}
}

// SimulatorOpener returns an opener backed by sim.
func SimulatorOpener(sim *robot.Simulator) Opener {
	return func() (*robot.Controller, error) {
		return robot.NewController(sim, "simulator", 0)
	}
}

// Config configures a Relay.
type Config struct {
	Dial  Dialer
	Open  Opener
	Clock clockwork.Clock

	// CycleDelay is slept after every reply.
	CycleDelay time.Duration
	// SettleDelay is how long the microcontroller needs after its port opens.
	SettleDelay time.Duration
	// ControllerPoll is the minimum time between two open attempts.
	ControllerPoll time.Duration
	// ReconnectDelay is slept before redialling the station.
	ReconnectDelay time.Duration
	// IdleTimeout limits the wait for a command; zero waits forever.
	IdleTimeout time.Duration
}

// Relay forwards station commands to the microcontroller.
type Relay struct {
	cfg   Config
	clock clockwork.Clock

	mu          syncutil.Mutex
	state       State
	ctrl        *robot.Controller
	openedAt    time.Time
	lastAttempt time.Time
}

// New creates a relay. Dial and Open are required.
func New(cfg Config) (*Relay, error) {
	if cfg.Dial == nil {
		return nil, errors.New("relay: dialer not set")
	}
	if cfg.Open == nil {
		return nil, errors.New("relay: opener not set")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Relay{cfg: cfg, clock: cfg.Clock}, nil
}

// State returns the current state.
func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Relay) setState(s State) {
	if r.state != s {
		log.Info().Stringer("from", r.state).Stringer("to", s).Msg("relay state changed")
		r.state = s
	}
}

// Run dials the station and serves it until the station quits or ctx is
// cancelled. A lost link is redialled after the reconnect delay. Run returns
// nil on quit.
func (r *Relay) Run(ctx context.Context) error {
	defer r.shutdown()

	for {
		conn, err := r.cfg.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("station unreachable")
		} else {
			log.Info().Str("station", conn.RemoteAddr().String()).Msg("connected to station")
			err = r.Serve(ctx, conn)
			_ = conn.Close()
			if errors.Is(err, ErrQuit) {
				log.Info().Msg("station quit, relay stopping")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("station link lost")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(r.cfg.ReconnectDelay):
		}
	}
}

// Serve runs the command cycle on one station link. It returns ErrQuit when
// the station quits, and the read or write error when the link fails. The
// caller closes conn.
func (r *Relay) Serve(ctx context.Context, conn net.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	buf := make([]byte, command.Width)
	for {
		if r.cfg.IdleTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(r.cfg.IdleTimeout)); err != nil {
				return fmt.Errorf("set read deadline: %w", err)
			}
		}
		if _, err := io.ReadFull(conn, buf); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read command: %w", err)
		}

		cmd, err := command.Parse(string(buf))
		if err != nil {
			log.Warn().Err(err).Msg("invalid command, sending neutral")
			cmd = command.Neutral
		}

		if cmd.IsQuit() {
			r.mu.Lock()
			r.setState(Terminating)
			r.mu.Unlock()
			r.shutdown()
			return ErrQuit
		}

		reply := r.forward(cmd)
		if !strings.HasSuffix(reply, "\n") {
			reply += "\n"
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}

		if r.cfg.CycleDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(r.cfg.CycleDelay):
			}
		}
	}
}

// forward exchanges cmd with the microcontroller, or returns the
// placeholder while there is none.
func (r *Relay) forward(cmd command.Command) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctrl := r.controller()
	if ctrl == nil {
		return telemetry.Placeholder
	}
	line, err := ctrl.Exchange(cmd.String())
	if err != nil {
		log.Error().Err(err).Str("port", ctrl.Name()).Msg("controller link failed")
		r.dropController()
		return telemetry.Placeholder
	}
	log.Debug().Stringer("cmd", cmd).Str("reply", strings.TrimSpace(line)).Msg("exchanged")
	return line
}

// controller returns the settled controller, opening it if the poll
// interval allows. Callers hold r.mu.
func (r *Relay) controller() *robot.Controller {
	now := r.clock.Now()
	if r.ctrl == nil {
		if !r.lastAttempt.IsZero() && now.Sub(r.lastAttempt) < r.cfg.ControllerPoll {
			return nil
		}
		r.lastAttempt = now
		ctrl, err := r.cfg.Open()
		if err != nil {
			log.Debug().Err(err).Msg("controller not available")
			return nil
		}
		log.Info().Str("port", ctrl.Name()).Msg("controller connected, settling")
		r.ctrl = ctrl
		r.openedAt = now
	}
	if now.Sub(r.openedAt) < r.cfg.SettleDelay {
		return nil
	}
	r.setState(Active)
	return r.ctrl
}

func (r *Relay) dropController() {
	if r.ctrl != nil {
		_ = r.ctrl.Close()
		r.ctrl = nil
	}
	if r.state != Terminating {
		r.setState(WaitingForController)
	}
}

// shutdown stops the motors and closes the controller.
func (r *Relay) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctrl == nil {
		return
	}
	if _, err := r.ctrl.Exchange(command.Neutral.String()); err != nil {
		log.Warn().Err(err).Msg("failed to send all-stop")
	}
	r.dropController()
}
