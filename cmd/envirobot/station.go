package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/envirobot/pkg/command"
	"github.com/gwillem/envirobot/pkg/helpers"
	"github.com/gwillem/envirobot/pkg/hud"
	"github.com/gwillem/envirobot/pkg/mjpeg"
	"github.com/gwillem/envirobot/pkg/telemetry"
	"github.com/gwillem/envirobot/pkg/teleop"
)

type StationCommand struct {
	Listen   string `long:"listen" description:"Address to accept the relay on (overrides config)"`
	VideoURL string `long:"video" description:"MJPEG stream URL (overrides config)"`
	NoChart  bool   `long:"no-chart" description:"Hide the telemetry chart"`
}

const (
	headerHeight = 2 // title + blank line
	overlayLines = 2 // telemetry row + hint row
	chartHeight  = 8
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2
)

// Field colors for the telemetry chart
var fieldColors = map[telemetry.Field]string{
	telemetry.Temperature: "196", // red
	telemetry.Light:       "226", // yellow
	telemetry.Distance:    "46",  // green
	telemetry.MotorPWM:    "51",  // cyan
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type stationModel struct {
	session  *teleop.Session
	keys     *command.KeyTracker
	renderer *terminalRenderer
	chart    *streamlinechart.Model
	noChart  bool
	width    int
	height   int
	frame    frameMsg
	logs     []string
	done     bool
	err      error
}

// Messages from the session
type viewMsg hud.View
type logMsg string
type sessionDoneMsg struct{ err error }

func waitForView(s *teleop.Session) tea.Cmd {
	return func() tea.Msg {
		return viewMsg(<-s.Views())
	}
}

func waitForLog(s *teleop.Session) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-s.Logs())
	}
}

func newStationModel(s *teleop.Session, keys *command.KeyTracker, r *terminalRenderer, noChart bool) stationModel {
	chart := streamlinechart.New(80, chartHeight,
		streamlinechart.WithYRange(0, 100),
	)
	for _, f := range telemetry.AllFields() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fieldColors[f]))
		chart.SetDataSetStyles(string(f), runes.ThinLineStyle, style)
	}
	return stationModel{
		session:  s,
		keys:     keys,
		renderer: r,
		chart:    &chart,
		noChart:  noChart,
	}
}

func (m *stationModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// videoSize returns the video area in cells for the current terminal.
func (m *stationModel) videoSize() (cols, rows int) {
	if m.width == 0 || m.height == 0 {
		return 80, 24
	}
	cols = max(m.width-borderSize, 20)
	rows = m.height - headerHeight - overlayLines - footerHeight - borderSize
	if !m.noChart {
		rows -= chartHeight + borderSize
	}
	return cols, max(rows, 6)
}

func (m stationModel) Init() tea.Cmd {
	return tea.Batch(
		waitForView(m.session),
		waitForLog(m.session),
	)
}

func (m stationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer.SetSize(m.videoSize())
		m.chart.Resize(max(m.width-borderSize, 20), chartHeight)
		return m, nil

	case tea.KeyMsg:
		if m.done {
			return m, tea.Quit
		}
		if k, ok := keyFor(msg.String()); ok {
			m.keys.Press(k)
		}
		return m, nil

	case frameMsg:
		m.frame = msg
		return m, nil

	case viewMsg:
		view := hud.View(msg)
		if view.Valid {
			for f, v := range view.Reading.Scaled() {
				m.chart.PushDataSet(string(f), v)
			}
			m.chart.DrawAll()
		}
		return m, waitForView(m.session)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.session)

	case sessionDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m stationModel) View() string {
	if m.done {
		return "Session ended.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("EnviroBot Station"))
	sb.WriteString(dimStyle.Render("  session " + m.session.ID()[:8]))
	sb.WriteString("\n\n")

	top, help, bottom := renderOverlay(m.frame.texts)
	sb.WriteString(top)
	sb.WriteString("\n")
	video := m.frame.video
	if video == "" {
		video = dimStyle.Render("Waiting for video...")
	}
	if help != "" {
		video = lipgloss.JoinHorizontal(lipgloss.Top, video, " ", help)
	}
	sb.WriteString(boxStyle.Render(video))
	sb.WriteString("\n")
	sb.WriteString(bottom)
	sb.WriteString("\n")

	if !m.noChart {
		sb.WriteString(boxStyle.Render(m.chart.View()))
		sb.WriteString("\n")
		sb.WriteString(renderLegend())
		sb.WriteString("\n")
	}

	logStyle := boxStyle.
		Width(max(m.width-4, 20)).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = dimStyle.Render("WASD drive, arrows camera, Esc to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, f := range telemetry.AllFields() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(fieldColors[f])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+f.Label())
	}
	return strings.Join(items, "  ")
}

func (c *StationCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.Config, err)
	}
	if c.Listen != "" {
		cfg.Station.Listen = c.Listen
	}
	if c.VideoURL != "" {
		cfg.Station.VideoURL = c.VideoURL
	}

	// the terminal belongs to the HUD, so logs only go to the file
	logPath := helpers.LogPath(cfg.LogFile)
	if err := helpers.InitLogging(logPath, cfg.DebugLogging); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Waiting for the relay on %s (logging to %s)\n", cfg.Station.Listen, logPath)
	conn, err := acceptRelay(ctx, cfg.Station.Listen)
	if err != nil {
		return err
	}
	fmt.Printf("Relay connected from %s\n", conn.RemoteAddr())

	video, err := mjpeg.OpenStream(ctx, nil, cfg.Station.VideoURL)
	if err != nil {
		_ = conn.Close()
		return err
	}

	var sink teleop.TelemetrySink
	if cfg.Station.MQTT.Broker != "" {
		pub, err := telemetry.NewPublisher(telemetry.PublisherConfig{
			Broker: cfg.Station.MQTT.Broker,
			Topic:  cfg.Station.MQTT.Topic,
		})
		if err != nil {
			log.Warn().Err(err).Msg("telemetry publishing disabled")
		} else {
			defer pub.Close()
			sink = pub
		}
	}

	keys := command.NewKeyTracker(nil, cfg.Station.KeyHold())
	renderer := newTerminalRenderer(80, 24)
	session, err := teleop.NewSession(teleop.Config{
		Conn:            conn,
		Video:           video,
		Keys:            keys,
		Renderer:        renderer,
		Encoder:         command.NewEncoder(command.EncoderConfig{Debounce: cfg.Station.Debounce()}),
		Decoder:         mjpeg.NewJPEGDecoder(cfg.Station.FrameWidth, cfg.Station.FrameHeight),
		Telemetry:       sink,
		PollInterval:    cfg.Station.PollInterval(),
		ExchangeTimeout: cfg.Station.ExchangeTimeout(),
		MaxFrameBuffer:  cfg.Station.MaxFrameBuffer,
	})
	if err != nil {
		_ = conn.Close()
		_ = video.Close()
		return err
	}

	p := tea.NewProgram(newStationModel(session, keys, renderer, c.NoChart), tea.WithAltScreen())
	renderer.program = p

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	result := make(chan error, 1)
	go func() {
		err := session.Run(sessionCtx)
		p.Send(sessionDoneMsg{err: err})
		result <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-result
		return fmt.Errorf("run station HUD: %w", err)
	}
	cancel()

	err = <-result
	switch {
	case errors.Is(err, teleop.ErrQuit):
		fmt.Println("Teleoperation stopped.")
		return nil
	case errors.Is(err, context.Canceled):
		fmt.Println("Interrupted.")
		return nil
	default:
		return err
	}
}

// acceptRelay waits for the relay to dial in. Only one relay is served.
func acceptRelay(ctx context.Context, addr string) (net.Conn, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer ln.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("accept relay: %w", err)
	}
	log.Info().Str("relay", conn.RemoteAddr().String()).Msg("relay connected")
	return conn, nil
}
