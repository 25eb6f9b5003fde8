package main

import (
	"errors"
	"image"
	"slices"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/envirobot/pkg/hud"
)

// frameMsg carries one rendered video frame and its HUD texts.
type frameMsg struct {
	video string
	texts []hud.Text
}

// terminalRenderer turns frames into half block text and hands them to the
// bubbletea program. It is driven by the session's render task only; the
// program adjusts its size.
type terminalRenderer struct {
	program *tea.Program
	cols    atomic.Int32
	rows    atomic.Int32

	img   image.Image
	texts []hud.Text
}

func newTerminalRenderer(cols, rows int) *terminalRenderer {
	r := &terminalRenderer{}
	r.SetSize(cols, rows)
	return r
}

// SetSize sets the video area in terminal cells.
func (r *terminalRenderer) SetSize(cols, rows int) {
	r.cols.Store(int32(cols))
	r.rows.Store(int32(rows))
}

func (r *terminalRenderer) RenderFrame(img image.Image) {
	r.img = img
	r.texts = r.texts[:0]
}

func (r *terminalRenderer) RenderText(slot hud.Slot, text string) {
	r.texts = append(r.texts, hud.Text{Slot: slot, Text: text})
}

func (r *terminalRenderer) Present() error {
	if r.program == nil {
		return errors.New("renderer not attached to a program")
	}
	r.program.Send(r.frame())
	return nil
}

func (r *terminalRenderer) frame() frameMsg {
	return frameMsg{
		video: hud.Blocks(r.img, int(r.cols.Load()), int(r.rows.Load())),
		texts: slices.Clone(r.texts),
	}
}

var (
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

var dataLabels = map[hud.Slot]hud.Slot{
	hud.SlotTime:        hud.SlotLabelTime,
	hud.SlotTemperature: hud.SlotLabelTemperature,
	hud.SlotLight:       hud.SlotLabelLight,
	hud.SlotDistance:    hud.SlotLabelDistance,
	hud.SlotMotorSpeed:  hud.SlotLabelMotorSpeed,
}

// renderOverlay lays out the HUD texts of one frame: telemetry on the top
// line, the help box below it, hints and status on the bottom line.
func renderOverlay(texts []hud.Text) (top, help, bottom string) {
	byslot := make(map[hud.Slot]string, len(texts))
	for _, t := range texts {
		byslot[t.Slot] = t.Text
	}

	var values []string
	for _, s := range hud.DataSlots {
		v, ok := byslot[s]
		if !ok {
			continue
		}
		if label, ok := byslot[dataLabels[s]]; ok {
			values = append(values, labelStyle.Render(label+":")+" "+valueStyle.Render(v))
		} else {
			values = append(values, valueStyle.Render(v))
		}
	}
	top = strings.Join(values, "   ")

	var lines []string
	for _, s := range []hud.Slot{hud.SlotHelpDrive, hud.SlotHelpCamera, hud.SlotHelpFlashlight, hud.SlotHelpMotor} {
		if v, ok := byslot[s]; ok {
			lines = append(lines, v)
		}
	}
	if len(lines) > 0 {
		help = helpStyle.Render(strings.Join(lines, "\n"))
	}

	var hints []string
	for _, s := range []hud.Slot{hud.SlotHelpHint, hud.SlotHUDHint} {
		if v, ok := byslot[s]; ok {
			hints = append(hints, hintStyle.Render(v))
		}
	}
	if v := byslot[hud.SlotStatus]; v != "" {
		hints = append(hints, statusStyle.Render(v))
	}
	bottom = strings.Join(hints, "   ")
	return top, help, bottom
}
