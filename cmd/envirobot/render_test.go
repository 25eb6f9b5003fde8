package main

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/gwillem/envirobot/pkg/hud"
)

func TestTerminalRenderer_Frame(t *testing.T) {
	t.Parallel()

	r := newTerminalRenderer(8, 3)
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}

	r.RenderFrame(img)
	r.RenderText(hud.SlotHUDHint, "Press T to toggle HUD")
	msg := r.frame()

	assert.Equal(t, 3, lipgloss.Height(msg.video))
	assert.Equal(t, 8, lipgloss.Width(msg.video))
	assert.Equal(t, []hud.Text{{Slot: hud.SlotHUDHint, Text: "Press T to toggle HUD"}}, msg.texts)

	r.RenderFrame(img)
	assert.Empty(t, r.frame().texts, "texts reset per frame")
}

func TestTerminalRenderer_Detached(t *testing.T) {
	t.Parallel()

	r := newTerminalRenderer(8, 3)
	assert.Error(t, r.Present())
}

func TestRenderOverlay(t *testing.T) {
	t.Parallel()

	view := hud.View{HUDVisible: true, Time: "02:07:09PM", Status: ""}
	view.Reading.Temperature = "23C"
	top, help, bottom := renderOverlay(view.Compose())
	assert.Contains(t, top, "02:07:09PM")
	assert.Contains(t, top, "23C")
	assert.Empty(t, help)
	assert.Contains(t, bottom, "H for Help")
	assert.Contains(t, bottom, "Press T to toggle HUD")

	view.HelpVisible = true
	top, help, _ = renderOverlay(view.Compose())
	assert.Contains(t, top, "Temp:")
	assert.Contains(t, help, "WASD to move car")
	assert.Equal(t, 4, strings.Count(help, "\n")+1-2, "four help lines inside the border")

	view = hud.View{HUDVisible: false, Status: "Raspberry Pi is connecting to Arduino"}
	top, help, bottom = renderOverlay(view.Compose())
	assert.Empty(t, top)
	assert.Empty(t, help)
	assert.Contains(t, bottom, "Raspberry Pi is connecting to Arduino")
	assert.NotContains(t, bottom, "H for Help")
}
