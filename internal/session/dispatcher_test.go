package session

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/inventory-voice-lab/internal/inventory"
	"github.com/inventory-voice-lab/internal/media"
	"github.com/inventory-voice-lab/internal/nlu"
)

func testDispatcher(t *testing.T) (*Dispatcher, *inventory.Service, chan Event, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := inventory.Open(filepath.Join(dir, "inventory.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	inv, err := inventory.NewService(db, dir)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	events := make(chan Event, 8)
	return NewDispatcher(nlu.NewParser(), inv, events), inv, events, dir
}

func nextEvent(t *testing.T, events chan Event) Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event emitted")
		return Event{}
	}
}

// TestDispatchEnterSpace verifies a space command creates the space and
// emits an enter_space event carrying it.
func TestDispatchEnterSpace(t *testing.T) {
	d, inv, events, _ := testDispatcher(t)
	ctx := context.Background()
	if _, err := inv.EnterInventory(ctx, 1, 1, 1); err != nil {
		t.Fatalf("enter inventory: %v", err)
	}

	d.Dispatch(ctx, "entrar al espacio cocina")

	e := nextEvent(t, events)
	if e.Type != EventEnterSpace {
		t.Fatalf("expected enter_space, got %s (%+v)", e.Type, e)
	}
	if e.Space == nil || e.Space.Name != "Cocina" {
		t.Fatalf("unexpected space payload %+v", e.Space)
	}
}

// TestDispatchSpaceWithoutInventory verifies the precondition error is
// surfaced as an error event, not dropped.
func TestDispatchSpaceWithoutInventory(t *testing.T) {
	d, _, events, _ := testDispatcher(t)

	d.Dispatch(context.Background(), "entrar al espacio cocina")

	e := nextEvent(t, events)
	if e.Type != EventError || e.Message != "no inventory selected" {
		t.Fatalf("unexpected event %+v", e)
	}
}

// TestDispatchAttributeChain verifies element entry followed by an
// attribute command records the attribute against the element.
func TestDispatchAttributeChain(t *testing.T) {
	d, inv, events, _ := testDispatcher(t)
	ctx := context.Background()
	if _, err := inv.EnterInventory(ctx, 1, 1, 1); err != nil {
		t.Fatalf("enter inventory: %v", err)
	}

	d.Dispatch(ctx, "entrar al espacio cocina")
	nextEvent(t, events)
	d.Dispatch(ctx, "agregar el refrigerador")
	e := nextEvent(t, events)
	if e.Type != EventEnterElement || e.Element == nil || e.Element.Name != "Refrigerador" {
		t.Fatalf("unexpected event %+v", e)
	}

	d.Dispatch(ctx, "es color rojo")
	e = nextEvent(t, events)
	if e.Type != EventAttributeSet || e.Key != "color" || e.Value != "Rojo" {
		t.Fatalf("unexpected event %+v", e)
	}
}

// TestDispatchElementEnumeration verifies a multi-element narration creates
// every element and records colors as attributes.
func TestDispatchElementEnumeration(t *testing.T) {
	d, inv, events, _ := testDispatcher(t)
	ctx := context.Background()
	if _, err := inv.EnterInventory(ctx, 1, 1, 1); err != nil {
		t.Fatalf("enter inventory: %v", err)
	}
	d.Dispatch(ctx, "entrar al espacio cocina")
	nextEvent(t, events)

	d.Dispatch(ctx, "el espacio tiene 2 sillas y una mesa roja")

	e := nextEvent(t, events)
	if e.Type != EventElementsAdded || len(e.Elements) != 2 {
		t.Fatalf("unexpected event %+v", e)
	}
	if e.Elements[0].Name != "Sillas" || e.Elements[0].Amount != 2 {
		t.Fatalf("unexpected first element %+v", e.Elements[0])
	}
	if e.Elements[1].Name != "Mesa" {
		t.Fatalf("unexpected second element %+v", e.Elements[1])
	}

	attrs, err := inv.GetAttributes(ctx, e.Elements[1].ID)
	if err != nil {
		t.Fatalf("get attributes: %v", err)
	}
	if len(attrs) != 1 || attrs[0].Value != "Rojo" {
		t.Fatalf("color attribute missing: %+v", attrs)
	}
}

// TestDispatchCaptureWithoutVideo verifies a photo command before any video
// track produces the "no frame cache" error event.
func TestDispatchCaptureWithoutVideo(t *testing.T) {
	d, _, events, _ := testDispatcher(t)

	d.Dispatch(context.Background(), "tomar foto")

	e := nextEvent(t, events)
	if e.Type != EventError || e.Message != "no frame cache" {
		t.Fatalf("unexpected event %+v", e)
	}
}

// TestDispatchCaptureWithoutFrame verifies a bound but empty frame cache
// maps to "no frame available".
func TestDispatchCaptureWithoutFrame(t *testing.T) {
	d, _, events, dir := testDispatcher(t)
	d.SetFrameCache(media.NewFrameCache(dir, time.Second))

	d.Dispatch(context.Background(), "tomar foto")

	e := nextEvent(t, events)
	if e.Type != EventError || e.Message != "no frame available" {
		t.Fatalf("unexpected event %+v", e)
	}
}

// TestDispatchCapturePhoto verifies a cached frame is captured and the
// event carries the written path.
func TestDispatchCapturePhoto(t *testing.T) {
	d, _, events, dir := testDispatcher(t)
	fc := media.NewFrameCache(dir, time.Second)
	fc.Update(media.VideoFrame{Image: image.NewRGBA(image.Rect(0, 0, 640, 480)), PTS: 1})
	d.SetFrameCache(fc)

	d.Dispatch(context.Background(), "tomar foto")

	e := nextEvent(t, events)
	if e.Type != EventPhotoCaptured {
		t.Fatalf("unexpected event %+v", e)
	}
	if e.Path == "" {
		t.Fatal("capture event missing path")
	}
}

// TestDispatchUnrecognized verifies unknown commands produce a
// command_not_recognized event preserving the original text.
func TestDispatchUnrecognized(t *testing.T) {
	d, _, events, _ := testDispatcher(t)

	d.Dispatch(context.Background(), "abrir ventana")

	e := nextEvent(t, events)
	if e.Type != EventCommandNotRecognized || e.Command != "abrir ventana" {
		t.Fatalf("unexpected event %+v", e)
	}
}

// TestDispatchRecordingControls verifies recording commands pass straight
// through as events.
func TestDispatchRecordingControls(t *testing.T) {
	d, _, events, _ := testDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, "iniciar grabación")
	if e := nextEvent(t, events); e.Type != EventStartRecording {
		t.Fatalf("unexpected event %+v", e)
	}
	d.Dispatch(ctx, "detener grabación")
	if e := nextEvent(t, events); e.Type != EventStopRecording {
		t.Fatalf("unexpected event %+v", e)
	}
}
