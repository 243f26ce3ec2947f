package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/inputbridge/internal/command"
	"github.com/larsks/inputbridge/internal/effects"
	"github.com/larsks/inputbridge/internal/input"
	"github.com/larsks/inputbridge/internal/mapping"
)

// recordingTarget implements every capability and records calls as
// strings.
type recordingTarget struct {
	mu      sync.Mutex
	calls   []string
	buttons map[command.ControlID]bool
	panicOn command.ControlID
	mic     *effects.Generator
}

func newTarget() *recordingTarget {
	return &recordingTarget{buttons: make(map[command.ControlID]bool), panicOn: command.NoControl}
}

func (t *recordingTarget) record(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, fmt.Sprintf(format, args...))
}

func (t *recordingTarget) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

func (t *recordingTarget) SetButton(c command.ControlID, pressed bool) {
	if c == t.panicOn {
		panic("controller exploded")
	}
	t.buttons[c] = pressed
	t.record("button %s %v", c, pressed)
}
func (t *recordingTarget) Button(c command.ControlID) bool { return t.buttons[c] }
func (t *recordingTarget) SetTurbo(c command.ControlID, held bool) {
	t.record("turbo %s %v", c, held)
}
func (t *recordingTarget) SetAutoholdMode(active bool)       { t.record("autohold-mode %v", active) }
func (t *recordingTarget) LatchAutohold(c command.ControlID) { t.record("latch %s", c) }
func (t *recordingTarget) ClearAutohold()                    { t.record("clear-autohold") }
func (t *recordingTarget) SetTouch(x, y float64, pressed bool) {
	t.record("touch %.1f %.1f %v", x, y, pressed)
}
func (t *recordingTarget) SetPaddle(v float64) { t.record("paddle %.2f", v) }

func (t *recordingTarget) StartMicrophone(g *effects.Generator) {
	t.mic = g
	t.record("mic start %s", g.Path())
}
func (t *recordingTarget) StopMicrophone() { t.record("mic stop") }

func (t *recordingTarget) StartRumble(iterations int) error {
	time.Sleep(20 * time.Millisecond)
	t.record("rumble %d", iterations)
	return nil
}
func (t *recordingTarget) StopRumble() error {
	t.record("rumble stop")
	return nil
}

func newEngine(t *testing.T) (*Engine, *recordingTarget) {
	t.Helper()
	target := newTarget()
	e := New(mapping.NewStore(command.DefaultCatalog()), effects.NewLibrary(), target)
	t.Cleanup(e.Close)
	return e, target
}

func key(code int, pressed bool) input.Event {
	return input.NewEncoder(input.DefaultThreshold).EncodeKeyboardInput(code, pressed)
}

func TestKeyboardScenario(t *testing.T) {
	e, target := newEngine(t)
	e.SetMapping("keyboard:65", e.Store().DefaultFor("A"))

	invs := e.GenerateCommandList([]input.Event{key(65, true)})
	require.Len(t, invs, 1)
	assert.Equal(t, "A", invs[0].Tag())
	assert.True(t, invs[0].Pressed)

	e.Dispatch(invs)
	assert.Equal(t, []string{"button a true"}, target.list())
}

func TestGenerateCommandListOrder(t *testing.T) {
	e, _ := newEngine(t)
	e.SetMapping("keyboard:1", e.Store().DefaultFor("Up"))
	e.SetMapping("keyboard:2", e.Store().DefaultFor("Down"))
	e.SetMapping("keyboard:3", e.Store().DefaultFor("Left"))

	events := []input.Event{key(3, true), key(9, true), key(1, true), key(7, false), key(2, true)}
	var tags []string
	for _, inv := range e.GenerateCommandList(events) {
		tags = append(tags, inv.Tag())
	}
	assert.Equal(t, []string{"Left", "Up", "Down"}, tags)

	assert.Empty(t, e.GenerateCommandList([]input.Event{key(9, true)}))
	assert.Empty(t, e.GenerateCommandList(nil))
}

func TestGenerateCommandListCoalesces(t *testing.T) {
	e, _ := newEngine(t)
	e.SetMapping("keyboard:1", e.Store().DefaultFor("A"))
	e.SetMapping("pad:BTN_304", e.Store().DefaultFor("A"))
	e.SetMapping("keyboard:2", e.Store().DefaultFor("B"))

	pad := input.Event{DeviceCode: "pad", ElementCode: "BTN_304", Kind: input.Digital, Pressed: false}
	invs := e.GenerateCommandList([]input.Event{key(1, true), key(2, true), pad})
	require.Len(t, invs, 2)
	assert.Equal(t, "A", invs[0].Tag(), "first position is kept")
	assert.False(t, invs[0].Pressed, "last state wins")
	assert.Equal(t, "B", invs[1].Tag())
}

func TestAnalogValues(t *testing.T) {
	e, target := newEngine(t)
	e.SetMapping("pad:ABS_0", e.Store().DefaultFor("Paddle"))
	e.SetMapping("pad:ABS_2", e.Store().DefaultFor("R"))

	paddle := input.Event{DeviceCode: "pad", ElementCode: "ABS_0", Kind: input.Analog, Value: -0.25}
	trigger := input.Event{DeviceCode: "pad", ElementCode: "ABS_2", Kind: input.Analog, Value: 0.75, Pressed: true}
	invs := e.GenerateCommandList([]input.Event{paddle, trigger})
	require.Len(t, invs, 2)
	assert.Equal(t, -0.25, invs[0].Value, "paddle allows analog input")
	assert.Equal(t, 1.0, invs[1].Value, "digital operations see 0 or 1")

	e.Dispatch(invs)
	assert.Equal(t, []string{"paddle -0.25", "button r true"}, target.list())
}

func TestDispatchContinuesAfterFailure(t *testing.T) {
	e, target := newEngine(t)
	target.panicOn = command.ControlB

	invs := []command.Invocation{
		{Binding: e.Store().DefaultFor("B"), Pressed: true},
		{Binding: command.Binding{Tag: "bogus", Operation: command.Operation(9999)}, Pressed: true},
		{Binding: command.Binding{Tag: "no control", Operation: command.OpControllerButton, Control: command.NoControl}, Pressed: true},
		{Binding: e.Store().DefaultFor("Reset"), Pressed: true},
		{Binding: e.Store().DefaultFor("X"), Pressed: true},
	}
	assert.NotPanics(t, func() { e.Dispatch(invs) })
	assert.Equal(t, []string{"button x true"}, target.list(), "failures and unsupported ops are skipped")
}

func TestAsyncOperationsKeepOrder(t *testing.T) {
	e, target := newEngine(t)
	rumble := e.Store().DefaultFor("Rumble")
	rumble.IntValue = 3
	e.SetMapping("keyboard:5", rumble)
	e.SetMapping("keyboard:6", e.Store().DefaultFor("Y"))

	e.DispatchSingle(key(5, true))
	e.DispatchSingle(key(6, true))
	e.DispatchSingle(key(5, false))

	// Y runs inline while the slow rumble start is still queued.
	e.Wait()
	assert.Equal(t, []string{"button y true", "rumble 3", "rumble stop"}, target.list())
}

func TestMixedBatchRunsInListOrder(t *testing.T) {
	e, target := newEngine(t)
	rumble := e.Store().DefaultFor("Rumble")
	rumble.IntValue = 2
	e.SetMapping("keyboard:5", rumble)
	e.SetMapping("keyboard:6", e.Store().DefaultFor("Y"))
	e.SetMapping("keyboard:7", e.Store().DefaultFor("B"))

	e.Dispatch(e.GenerateCommandList([]input.Event{key(7, true), key(5, true), key(6, true)}))
	e.Wait()
	assert.Equal(t, []string{"button b true", "rumble 2", "button y true"}, target.list())
}

func writeWAV(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           []int{0, 1000, -1000, 0},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestMicrophoneSample(t *testing.T) {
	e, target := newEngine(t)
	path := filepath.Join(t.TempDir(), "blow.wav")
	writeWAV(t, path)

	mic := e.Store().DefaultFor("Microphone")
	mic.AudioPath = path
	e.SetMapping("keyboard:30", mic)

	invs := e.GenerateCommandList([]input.Event{key(30, true)})
	require.Len(t, invs, 1)
	require.NotNil(t, invs[0].Generator)
	assert.Equal(t, path, invs[0].Generator.Path())

	e.Dispatch(invs)
	e.DispatchSingle(key(30, false))
	assert.Equal(t, []string{"mic start " + path, "mic stop"}, target.list())
}

func TestMissingSampleIsSilent(t *testing.T) {
	e, target := newEngine(t)
	missing := filepath.Join(t.TempDir(), "missing.wav")

	_, err := e.LoadEffectFile(missing)
	require.Error(t, err)

	mic := e.Store().DefaultFor("Microphone")
	mic.AudioPath = missing
	e.SetMapping("keyboard:30", mic)

	invs := e.GenerateCommandList([]input.Event{key(30, true)})
	require.Len(t, invs, 1)
	assert.Nil(t, invs[0].Generator)

	assert.NotPanics(t, func() { e.Dispatch(invs) })
	assert.Empty(t, target.list())
	assert.Nil(t, target.mic)
}

func TestRefreshEffects(t *testing.T) {
	e, _ := newEngine(t)
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.wav")
	dropped := filepath.Join(dir, "dropped.wav")
	writeWAV(t, kept)
	writeWAV(t, dropped)

	mic := e.Store().DefaultFor("Microphone")
	mic.AudioPath = kept
	e.SetMapping("keyboard:1", mic)
	_, err := e.LoadEffectFile(dropped)
	require.NoError(t, err)

	e.RefreshEffects()
	assert.Equal(t, []string{kept}, e.Library().Paths())
}

func TestRemoveMappings(t *testing.T) {
	e, _ := newEngine(t)
	e.SetMapping("keyboard:1", e.Store().DefaultFor("A"))
	e.SetMapping("keyboard:2", e.Store().DefaultFor("A"))
	e.SetMapping("keyboard:3", e.Store().DefaultFor("B"))

	e.RemoveMapping("keyboard:3")
	assert.Empty(t, e.GenerateCommandList([]input.Event{key(3, true)}))

	e.RemoveAllMappingsForTag("A")
	assert.Empty(t, e.GenerateCommandList([]input.Event{key(1, true), key(2, true)}))
}

func TestTagFor(t *testing.T) {
	e, _ := newEngine(t)
	e.SetMapping("keyboard:2", e.Store().DefaultFor("Start"))

	tag, ok := e.TagFor([]input.Event{key(1, true), key(2, true)})
	assert.True(t, ok)
	assert.Equal(t, "Start", tag)

	_, ok = e.TagFor([]input.Event{key(1, true)})
	assert.False(t, ok)
}

func TestRunDrainsQueue(t *testing.T) {
	e, target := newEngine(t)
	e.SetMapping("keyboard:1", e.Store().DefaultFor("L"))

	q := NewBatchQueue(4)
	q.Push([]input.Event{key(1, true)})
	q.Push([]input.Event{key(1, false)})
	q.Close()

	e.Run(context.Background(), q)
	assert.Equal(t, []string{"button l true", "button l false"}, target.list())
}

func TestRunStopsOnCancel(t *testing.T) {
	e, _ := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx, NewBatchQueue(1))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBatchQueueDropsOldest(t *testing.T) {
	q := NewBatchQueue(2)
	for i := 1; i <= 4; i++ {
		q.Push([]input.Event{key(i, true)})
	}
	q.Push(nil)

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, uint64(2), q.Dropped())
	assert.Equal(t, "3", (<-q.C())[0].ElementCode)
	assert.Equal(t, "4", (<-q.C())[0].ElementCode)

	q.Close()
	q.Close()
	assert.NotPanics(t, func() { q.Push([]input.Event{key(5, true)}) })
}
