// Package teleop runs the ground station side of a teleoperation session:
// it exchanges keyboard commands and telemetry with the relay and renders
// the robot's video stream with the HUD on top.
package teleop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gwillem/envirobot/pkg/command"
	"github.com/gwillem/envirobot/pkg/hud"
	"github.com/gwillem/envirobot/pkg/mjpeg"
	"github.com/gwillem/envirobot/pkg/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrQuit ends a session after the quit command was sent.
	ErrQuit = errors.New("operator quit")
	// ErrConnectionLost means the relay link failed or timed out.
	ErrConnectionLost = errors.New("relay connection lost")
	// ErrVideoLost means the video stream ended or failed.
	ErrVideoLost = errors.New("video stream lost")
)

const (
	DefaultPollInterval    = 50 * time.Millisecond
	DefaultExchangeTimeout = 5 * time.Second

	videoReadSize = 2048
)

// KeySource reports which keys are held right now.
type KeySource interface {
	State() command.KeyboardState
}

// Decoder turns an extracted frame into an image.
type Decoder interface {
	Decode(frame []byte) (image.Image, error)
}

// Renderer draws one frame and its HUD texts, then shows them.
type Renderer interface {
	RenderFrame(img image.Image)
	RenderText(slot hud.Slot, text string)
	Present() error
}

// TelemetrySink receives every valid reading.
type TelemetrySink interface {
	Publish(r telemetry.Reading, at time.Time) error
}

// Config holds configuration for a session. Conn, Video, Keys and Renderer
// are required.
type Config struct {
	Conn      net.Conn
	Video     io.ReadCloser
	Keys      KeySource
	Renderer  Renderer
	Encoder   *command.Encoder
	Decoder   Decoder
	Model     *hud.Model
	Telemetry TelemetrySink
	Clock     clockwork.Clock

	PollInterval    time.Duration
	ExchangeTimeout time.Duration
	MaxFrameBuffer  int
}

// Session owns the relay link and the video stream for one run.
type Session struct {
	id        string
	conn      net.Conn
	reader    *bufio.Reader
	video     io.ReadCloser
	keys      KeySource
	renderer  Renderer
	encoder   *command.Encoder
	decoder   Decoder
	extractor *mjpeg.Extractor
	model     *hud.Model
	sink      TelemetrySink
	clock     clockwork.Clock
	poll      time.Duration
	timeout   time.Duration
	logger    zerolog.Logger

	quit    atomic.Bool
	closing atomic.Bool
	viewCh  chan hud.View
	logCh   chan string
}

// NewSession creates a session; nothing runs until Run.
func NewSession(cfg Config) (*Session, error) {
	switch {
	case cfg.Conn == nil:
		return nil, errors.New("session: relay connection not set")
	case cfg.Video == nil:
		return nil, errors.New("session: video source not set")
	case cfg.Keys == nil:
		return nil, errors.New("session: key source not set")
	case cfg.Renderer == nil:
		return nil, errors.New("session: renderer not set")
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Encoder == nil {
		cfg.Encoder = command.NewEncoder(command.EncoderConfig{Clock: cfg.Clock})
	}
	if cfg.Decoder == nil {
		cfg.Decoder = mjpeg.NewJPEGDecoder(0, 0)
	}
	if cfg.Model == nil {
		cfg.Model = hud.NewModel()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ExchangeTimeout <= 0 {
		cfg.ExchangeTimeout = DefaultExchangeTimeout
	}

	id := uuid.NewString()
	return &Session{
		id:        id,
		conn:      cfg.Conn,
		reader:    bufio.NewReader(cfg.Conn),
		video:     cfg.Video,
		keys:      cfg.Keys,
		renderer:  cfg.Renderer,
		encoder:   cfg.Encoder,
		decoder:   cfg.Decoder,
		extractor: mjpeg.NewExtractor(cfg.MaxFrameBuffer),
		model:     cfg.Model,
		sink:      cfg.Telemetry,
		clock:     cfg.Clock,
		poll:      cfg.PollInterval,
		timeout:   cfg.ExchangeTimeout,
		logger:    log.With().Str("session", id).Logger(),
		viewCh:    make(chan hud.View, 1),
		logCh:     make(chan string, 10),
	}, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Model returns the HUD state.
func (s *Session) Model() *hud.Model {
	return s.model
}

// Views returns a channel that receives the HUD state after every exchange.
// Only the latest view is kept.
func (s *Session) Views() <-chan hud.View {
	return s.viewCh
}

// Logs returns a channel that receives log messages.
func (s *Session) Logs() <-chan string {
	return s.logCh
}

// Quitting reports whether the quit command has been sent.
func (s *Session) Quitting() bool {
	return s.quit.Load()
}

func (s *Session) log(level zerolog.Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.logger.WithLevel(level).Msg(msg)
	select {
	case s.logCh <- fmt.Sprintf("[%s] %s", s.clock.Now().Format("15:04:05"), msg):
	default:
		// Drop if channel full
	}
}

// Run exchanges commands and renders video until the operator quits, a
// link fails or ctx is cancelled. It returns ErrQuit, ErrConnectionLost,
// ErrVideoLost (wrapped) or the context error. Both links are closed when
// Run returns: the relay connection only after the exchange task has
// stopped, then the video source, which unblocks the render task.
func (s *Session) Run(ctx context.Context) error {
	s.log(zerolog.InfoLevel, "Session started, polling every %s", s.poll)

	g, gctx := errgroup.WithContext(ctx)
	exchangeDone := make(chan struct{})

	g.Go(func() error {
		defer close(exchangeDone)
		return s.exchangeLoop(gctx)
	})
	g.Go(func() error {
		return s.renderLoop(gctx)
	})
	g.Go(func() error {
		<-exchangeDone
		s.closing.Store(true)
		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("close relay connection")
		}
		if err := s.video.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("close video")
		}
		return nil
	})

	err := g.Wait()
	switch {
	case errors.Is(err, ErrQuit):
		s.log(zerolog.InfoLevel, "Session ended by operator")
	case err != nil:
		s.log(zerolog.ErrorLevel, "Session ended: %v", err)
	}
	return err
}

func (s *Session) exchangeLoop(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := s.exchange(); err != nil {
				return err
			}
		}
	}
}

// exchange runs one cycle: encode the held keys, send the command and
// apply the reply to the HUD.
func (s *Session) exchange() error {
	cmd := s.encoder.Encode(s.keys.State())
	t := s.encoder.Toggles()
	s.model.SetToggles(t.HUD, t.Help, t.Flashlight)

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	if _, err := io.WriteString(s.conn, cmd.String()); err != nil {
		return fmt.Errorf("%w: send command: %w", ErrConnectionLost, err)
	}
	if cmd.IsQuit() {
		s.quit.Store(true)
		return ErrQuit
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("%w: read reply: %w", ErrConnectionLost, err)
	}

	now := s.clock.Now()
	reading, ok := s.model.ApplyLine(line, now)
	s.sendView(s.model.View())

	if ok && s.sink != nil {
		if err := s.sink.Publish(reading, now); err != nil {
			s.logger.Warn().Err(err).Msg("publish telemetry")
		}
	}
	return nil
}

func (s *Session) sendView(v hud.View) {
	select {
	case s.viewCh <- v:
	default:
		// Drop old view if channel full, replace with new
		select {
		case <-s.viewCh:
		default:
		}
		s.viewCh <- v
	}
}

func (s *Session) renderLoop(ctx context.Context) error {
	buf := make([]byte, videoReadSize)
	for {
		n, err := s.video.Read(buf)
		if n > 0 {
			s.extractor.Feed(buf[:n])
			for frame := s.extractor.Next(); frame != nil; frame = s.extractor.Next() {
				s.renderFrame(frame)
			}
		}
		if err != nil {
			// a read failing because the closer ran is not a lost stream
			if ctx.Err() != nil || s.closing.Load() {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrVideoLost, err)
		}
	}
}

// renderFrame draws one frame with the HUD texts visible at this moment.
// A frame that does not decode is skipped.
func (s *Session) renderFrame(frame []byte) {
	img, err := s.decoder.Decode(frame)
	if err != nil {
		s.log(zerolog.WarnLevel, "Frame dropped: %v", err)
		return
	}

	view := s.model.View()
	s.renderer.RenderFrame(img)
	for _, t := range view.Compose() {
		s.renderer.RenderText(t.Slot, t.Text)
	}
	if err := s.renderer.Present(); err != nil {
		s.logger.Warn().Err(err).Msg("present frame")
	}
}
