// Package telemetry parses the sensor lines reported by the robot.
package telemetry

// Field identifies a value in a telemetry line.
type Field string

// Telemetry fields in the order the microcontroller reports them.
const (
	Temperature Field = "temperature"
	Light       Field = "light"
	Distance    Field = "distance"
	MotorPWM    Field = "motor_pwm"
)

// AllFields returns all fields in line order.
func AllFields() []Field {
	return []Field{
		Temperature,
		Light,
		Distance,
		MotorPWM,
	}
}

// Label returns the human readable name shown next to a field.
func (f Field) Label() string {
	switch f {
	case Temperature:
		return "Temp"
	case Light:
		return "Light"
	case Distance:
		return "Distance"
	case MotorPWM:
		return "Motor Speed"
	}
	return string(f)
}
