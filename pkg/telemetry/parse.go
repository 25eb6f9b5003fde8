package telemetry

import (
	"strconv"
	"strings"
)

// MinFields is the number of comma separated values a line needs before it
// counts as a reading.
const MinFields = 4

// ConnectingStatus is shown while the robot has not reached its
// microcontroller yet.
const ConnectingStatus = "Raspberry Pi is connecting to Arduino"

// Placeholder is what the relay reports while its serial link is down.
const Placeholder = "waiting"

// Reading is one parsed telemetry line. Values are kept as sent, units
// included (for example "23C" or "54%").
type Reading struct {
	Temperature string
	Light       string
	Distance    string
	MotorPWM    string
}

// Parse splits a telemetry line. It reports false when the line has fewer
// than MinFields values, which is the normal state while the robot boots.
func Parse(line string) (Reading, bool) {
	line = strings.Trim(line, "\r\n")
	parts := strings.Split(line, ",")
	if len(parts) < MinFields {
		return Reading{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return Reading{
		Temperature: parts[0],
		Light:       parts[1],
		Distance:    parts[2],
		MotorPWM:    parts[3],
	}, true
}

// Get returns the raw value of f.
func (r Reading) Get(f Field) string {
	switch f {
	case Temperature:
		return r.Temperature
	case Light:
		return r.Light
	case Distance:
		return r.Distance
	case MotorPWM:
		return r.MotorPWM
	}
	return ""
}

// Numeric returns the leading number of f's value, dropping its unit.
func (r Reading) Numeric(f Field) (float64, bool) {
	return leadingNumber(r.Get(f))
}

// Values returns every field that carries a number.
func (r Reading) Values() map[Field]float64 {
	vals := make(map[Field]float64, MinFields)
	for _, f := range AllFields() {
		if v, ok := r.Numeric(f); ok {
			vals[f] = v
		}
	}
	return vals
}

func leadingNumber(s string) (float64, bool) {
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
