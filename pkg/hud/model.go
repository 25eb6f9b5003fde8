// Package hud holds the heads-up display state shared between the
// exchange loop, which writes it, and the render loop, which reads it.
package hud

import (
	"time"

	"github.com/gwillem/envirobot/pkg/helpers/syncutil"
	"github.com/gwillem/envirobot/pkg/telemetry"
)

// Slot names a text position on the HUD.
type Slot int

const (
	SlotTime Slot = iota
	SlotTemperature
	SlotLight
	SlotDistance
	SlotMotorSpeed
	SlotHelpHint
	SlotHUDHint
	SlotStatus

	// Help overlay labels.
	SlotLabelTime
	SlotLabelTemperature
	SlotLabelLight
	SlotLabelDistance
	SlotLabelMotorSpeed
	SlotHelpDrive
	SlotHelpCamera
	SlotHelpFlashlight
	SlotHelpMotor
)

var slotNames = map[Slot]string{
	SlotTime:             "time",
	SlotTemperature:      "temperature",
	SlotLight:            "light",
	SlotDistance:         "distance",
	SlotMotorSpeed:       "motor_speed",
	SlotHelpHint:         "help_hint",
	SlotHUDHint:          "hud_hint",
	SlotStatus:           "status",
	SlotLabelTime:        "label_time",
	SlotLabelTemperature: "label_temperature",
	SlotLabelLight:       "label_light",
	SlotLabelDistance:    "label_distance",
	SlotLabelMotorSpeed:  "label_motor_speed",
	SlotHelpDrive:        "help_drive",
	SlotHelpCamera:       "help_camera",
	SlotHelpFlashlight:   "help_flashlight",
	SlotHelpMotor:        "help_motor",
}

func (s Slot) String() string {
	if n, ok := slotNames[s]; ok {
		return n
	}
	return "unknown"
}

// TimeFormat is the clock format of the time slot.
const TimeFormat = "03:04:05PM"

const (
	helpHint = "H for Help"
	hudHint  = "Press T to toggle HUD"
)

// DataSlots are the telemetry slots, shown while the HUD is visible.
var DataSlots = []Slot{SlotTime, SlotTemperature, SlotLight, SlotDistance, SlotMotorSpeed}

var fieldSlots = map[telemetry.Field]Slot{
	telemetry.Temperature: SlotTemperature,
	telemetry.Light:       SlotLight,
	telemetry.Distance:    SlotDistance,
	telemetry.MotorPWM:    SlotMotorSpeed,
}

// SlotFor returns the data slot showing f.
func SlotFor(f telemetry.Field) Slot {
	return fieldSlots[f]
}

// Text is one piece of text to draw.
type Text struct {
	Slot Slot
	Text string
}

// HelpTexts returns the help overlay.
func HelpTexts() []Text {
	return []Text{
		{SlotLabelTime, "Time"},
		{SlotLabelTemperature, telemetry.Temperature.Label()},
		{SlotLabelLight, telemetry.Light.Label()},
		{SlotLabelDistance, telemetry.Distance.Label()},
		{SlotLabelMotorSpeed, telemetry.MotorPWM.Label()},
		{SlotHelpDrive, "WASD to move car"},
		{SlotHelpCamera, "Arrow keys to move camera"},
		{SlotHelpFlashlight, "F to toggle flashlight"},
		{SlotHelpMotor, "E to increase, C to decrease motor speed"},
	}
}

// View is a consistent copy of the HUD state.
type View struct {
	Reading     telemetry.Reading
	Time        string
	Status      string
	Valid       bool
	HUDVisible  bool
	HelpVisible bool
	Flashlight  bool
	Updated     time.Time
}

// Get returns the text of a slot.
func (v View) Get(s Slot) string {
	switch s {
	case SlotTime:
		return v.Time
	case SlotTemperature:
		return v.Reading.Temperature
	case SlotLight:
		return v.Reading.Light
	case SlotDistance:
		return v.Reading.Distance
	case SlotMotorSpeed:
		return v.Reading.MotorPWM
	case SlotHelpHint:
		return helpHint
	case SlotHUDHint:
		return hudHint
	case SlotStatus:
		return v.Status
	}
	for _, t := range HelpTexts() {
		if t.Slot == s {
			return t.Text
		}
	}
	return ""
}

// Compose lists the texts to draw over a frame, in draw order: telemetry
// and the help hint while the HUD is visible, the help overlay when both
// the HUD and help are visible, and the HUD hint and status always.
func (v View) Compose() []Text {
	var out []Text
	if v.HUDVisible {
		for _, s := range DataSlots {
			out = append(out, Text{s, v.Get(s)})
		}
		out = append(out, Text{SlotHelpHint, helpHint})
		if v.HelpVisible {
			out = append(out, HelpTexts()...)
		}
	}
	out = append(out, Text{SlotHUDHint, hudHint}, Text{SlotStatus, v.Status})
	return out
}

// Model is the HUD state. Writers update it under a lock and readers take
// a View, so a render never sees half of an update.
type Model struct {
	mu   syncutil.RWMutex
	view View
}

// NewModel returns a model with the HUD visible and no telemetry yet.
func NewModel() *Model {
	return &Model{view: View{HUDVisible: true, Status: telemetry.ConnectingStatus}}
}

// ApplyLine updates the telemetry slots from a raw line. Lines that do not
// parse clear the slots and show the connecting status. It returns the
// parsed reading and whether it was valid.
func (m *Model) ApplyLine(line string, now time.Time) (telemetry.Reading, bool) {
	r, ok := telemetry.Parse(line)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.view.Updated = now
	m.view.Valid = ok
	m.view.Reading = r
	if ok {
		m.view.Time = now.Format(TimeFormat)
		m.view.Status = ""
	} else {
		m.view.Time = ""
		m.view.Status = telemetry.ConnectingStatus
	}
	return r, ok
}

// SetToggles stores the visibility flags and flashlight state.
func (m *Model) SetToggles(hud, help, flashlight bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.HUDVisible = hud
	m.view.HelpVisible = help
	m.view.Flashlight = flashlight
}

// SetStatus replaces the status text.
func (m *Model) SetStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.Status = status
}

// View returns a copy of the current state.
func (m *Model) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}
