package telemetry

// Range is the expected span of a field's values.
type Range struct {
	Min float64
	Max float64
}

// DefaultRanges cover what the robot's sensors report: degrees Celsius,
// percentages and centimetres.
var DefaultRanges = map[Field]Range{
	Temperature: {Min: -10, Max: 50},
	Light:       {Min: 0, Max: 100},
	Distance:    {Min: 0, Max: 300},
	MotorPWM:    {Min: 0, Max: 100},
}

// Normalize converts a value to the range [0, 100]. Values outside the
// range are clamped.
func (r Range) Normalize(v float64) float64 {
	size := r.Max - r.Min
	if size == 0 {
		return 0
	}
	n := (v - r.Min) / size * 100
	return max(0, min(n, 100))
}

// Denormalize converts a value in [0, 100] back to the range.
func (r Range) Denormalize(n float64) float64 {
	return n/100*(r.Max-r.Min) + r.Min
}

// Scaled returns the numeric fields of r normalized with DefaultRanges, so
// fields with different units can share one chart.
func (r Reading) Scaled() map[Field]float64 {
	values := r.Values()
	for f, v := range values {
		if rng, ok := DefaultRanges[f]; ok {
			values[f] = rng.Normalize(v)
		}
	}
	return values
}
