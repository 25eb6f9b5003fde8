package command

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncoder() (*Encoder, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	return NewEncoder(EncoderConfig{Clock: clock}), clock
}

func TestEncode_SingleDirections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		drive, camera Key
		want          byte
	}{
		{DriveUp, CameraUp, CodeUp},
		{DriveDown, CameraDown, CodeDown},
		{DriveLeft, CameraLeft, CodeLeft},
		{DriveRight, CameraRight, CodeRight},
	}

	for _, tt := range tests {
		enc, _ := newTestEncoder()

		got := enc.Encode(NewKeyboardState(tt.drive))
		assert.Equal(t, tt.want, got.Drive, "drive %s", tt.drive)
		assert.Equal(t, CodeNone, got.Camera)

		got = enc.Encode(NewKeyboardState(tt.camera))
		assert.Equal(t, tt.want, got.Camera, "camera %s", tt.camera)
		assert.Equal(t, CodeNone, got.Drive)
	}
}

func TestEncode_DiagonalsWin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		keys []Key
		want byte
	}{
		{"down right", []Key{DriveDown, DriveRight}, CodeDownRight},
		{"down left", []Key{DriveDown, DriveLeft}, CodeDownLeft},
		{"up right", []Key{DriveUp, DriveRight}, CodeUpRight},
		{"up left", []Key{DriveUp, DriveLeft}, CodeUpLeft},
		// down+right is checked before down+left
		{"down left right", []Key{DriveDown, DriveLeft, DriveRight}, CodeDownRight},
		// down+right is checked before up+right
		{"all four", []Key{DriveUp, DriveDown, DriveLeft, DriveRight}, CodeDownRight},
		{"up down", []Key{DriveUp, DriveDown}, CodeDown},
		{"left right", []Key{DriveLeft, DriveRight}, CodeRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			enc, _ := newTestEncoder()
			assert.Equal(t, tt.want, enc.Encode(NewKeyboardState(tt.keys...)).Drive)
		})
	}
}

func TestEncode_CameraIndependentOfDrive(t *testing.T) {
	t.Parallel()

	enc, _ := newTestEncoder()
	got := enc.Encode(NewKeyboardState(DriveUp, DriveLeft, CameraDown, CameraRight))

	assert.Equal(t, "5080", got.String())
	assert.Equal(t, CodeUpLeft, got.Drive)
	assert.Equal(t, CodeDownRight, got.Camera)
}

func TestEncode_Idle(t *testing.T) {
	t.Parallel()

	enc, _ := newTestEncoder()
	got := enc.Encode(KeyboardState(0))
	assert.Equal(t, Neutral, got)
	assert.Equal(t, "0000", got.String())
}

func TestEncode_Trim(t *testing.T) {
	t.Parallel()

	enc, _ := newTestEncoder()
	assert.Equal(t, CodeTrimUp, enc.Encode(NewKeyboardState(TrimUp)).Trim)
	assert.Equal(t, CodeTrimDown, enc.Encode(NewKeyboardState(TrimDown)).Trim)
	assert.Equal(t, CodeTrimUp, enc.Encode(NewKeyboardState(TrimUp, TrimDown)).Trim)
	// momentary: nothing latched
	assert.Equal(t, CodeNone, enc.Encode(KeyboardState(0)).Trim)
}

func TestEncode_FlashlightSustainedPressTogglesOnce(t *testing.T) {
	t.Parallel()

	enc, clock := newTestEncoder()
	held := NewKeyboardState(Flashlight)

	// 50ms polls across most of one debounce window
	for range 4 {
		assert.Equal(t, CodeFlashlight, enc.Encode(held).Flashlight)
		clock.Advance(45 * time.Millisecond)
	}
	assert.True(t, enc.Toggles().Flashlight)

	// released: stays latched on
	assert.Equal(t, CodeFlashlight, enc.Encode(KeyboardState(0)).Flashlight)
}

func TestEncode_FlashlightTwoPressesToggleTwice(t *testing.T) {
	t.Parallel()

	enc, clock := newTestEncoder()
	held := NewKeyboardState(Flashlight)

	assert.Equal(t, CodeFlashlight, enc.Encode(held).Flashlight)
	clock.Advance(50 * time.Millisecond)
	enc.Encode(KeyboardState(0))
	clock.Advance(DefaultDebounce)

	assert.Equal(t, CodeNone, enc.Encode(held).Flashlight)
	assert.False(t, enc.Toggles().Flashlight)
}

func TestEncode_HelpAndHUDToggles(t *testing.T) {
	t.Parallel()

	enc, clock := newTestEncoder()
	require.Equal(t, Toggles{HUD: true}, enc.Toggles())

	enc.Encode(NewKeyboardState(Help, HUD))
	assert.Equal(t, Toggles{Help: true, HUD: false}, enc.Toggles())

	clock.Advance(100 * time.Millisecond)
	enc.Encode(NewKeyboardState(Help, HUD))
	assert.Equal(t, Toggles{Help: true, HUD: false}, enc.Toggles(), "within debounce window")

	clock.Advance(150 * time.Millisecond)
	enc.Encode(NewKeyboardState(HUD))
	assert.Equal(t, Toggles{Help: true, HUD: true}, enc.Toggles())

	// toggle keys never reach the wire
	assert.Equal(t, "0000", enc.Encode(NewKeyboardState(Help)).String())
}

func TestEncode_QuitOverridesEverything(t *testing.T) {
	t.Parallel()

	states := []KeyboardState{
		NewKeyboardState(Quit),
		NewKeyboardState(Quit, DriveUp, DriveRight),
		NewKeyboardState(Quit, Flashlight, CameraLeft, TrimUp),
		NewKeyboardState(AllKeys()...),
	}

	for _, s := range states {
		enc, _ := newTestEncoder()
		got := enc.Encode(s)
		assert.Equal(t, QuitCommand, got, "state %s", s)
		assert.Equal(t, "Q000", got.String())
		assert.True(t, got.IsQuit())
		assert.True(t, enc.Quitting())
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	c, err := Parse("6F2U")
	require.NoError(t, err)
	assert.Equal(t, Command{Drive: CodeUpRight, Flashlight: CodeFlashlight, Camera: CodeDown, Trim: CodeTrimUp}, c)

	c, err = Parse("Q000")
	require.NoError(t, err)
	assert.True(t, c.IsQuit())

	for _, bad := range []string{"", "Q", "00000", "9000", "0X00", "0090", "000Z"} {
		_, err := Parse(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParse_RoundTripsEncoderOutput(t *testing.T) {
	t.Parallel()

	enc, _ := newTestEncoder()
	c := enc.Encode(NewKeyboardState(DriveDown, DriveLeft, Flashlight, CameraUp, TrimDown))
	got, err := Parse(c.String())
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
