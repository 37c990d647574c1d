package session

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/inventory-voice-lab/internal/inventory"
	"github.com/inventory-voice-lab/internal/logging"
	"github.com/inventory-voice-lab/internal/media"
	"github.com/inventory-voice-lab/internal/nlu"
)

// ErrNoFrameCache is reported when a capture command arrives before any
// video track has been bound to the session.
var ErrNoFrameCache = errors.New("no frame cache")

// Dispatcher routes parsed commands to the session context or the frame
// cache and emits the corresponding outbound event. The frame cache
// reference is bound late, once the video track arrives.
type Dispatcher struct {
	parser *nlu.Parser
	inv    *inventory.Service
	events chan<- Event

	mu     sync.Mutex
	frames *media.FrameCache
}

func NewDispatcher(parser *nlu.Parser, inv *inventory.Service, events chan<- Event) *Dispatcher {
	return &Dispatcher{parser: parser, inv: inv, events: events}
}

// SetFrameCache binds the frame cache once the video stream is available.
func (d *Dispatcher) SetFrameCache(fc *media.FrameCache) {
	d.mu.Lock()
	d.frames = fc
	d.mu.Unlock()
}

func (d *Dispatcher) frameCache() *media.FrameCache {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Dispatch parses one final transcription and executes the resulting
// command. Exactly one event is emitted per call; no command is silently
// dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) {
	cmd := d.parser.Parse(text)
	logging.Infow("dispatching command", "intent", string(cmd.Intent), "entity", cmd.Entity, "raw", cmd.Raw)

	switch cmd.Intent {
	case nlu.IntentCapturePhoto:
		d.capturePhoto(ctx)

	case nlu.IntentEnterSpace:
		space, err := d.inv.EnterSpace(ctx, cmd.Entity, "")
		if err != nil {
			d.emitError(ctx, err)
			return
		}
		dto := space.DTO()
		d.emit(ctx, Event{Type: EventEnterSpace, Space: &dto})

	case nlu.IntentEnterElement:
		elem, err := d.inv.EnterElement(ctx, cmd.Entity, "", 1)
		if err != nil {
			d.emitError(ctx, err)
			return
		}
		dto := elem.DTO()
		d.emit(ctx, Event{Type: EventEnterElement, Element: &dto})

	case nlu.IntentAddElements:
		specs := nlu.ExtractElements(cmd.Entity)
		if len(specs) == 0 {
			d.emit(ctx, Event{Type: EventCommandNotRecognized, Command: cmd.Raw})
			return
		}
		var dtos []inventory.ElementDTO
		for _, spec := range specs {
			elem, err := d.inv.EnterElement(ctx, nlu.CapitalizeName(spec.Name), "", spec.Amount)
			if err != nil {
				d.emitError(ctx, err)
				return
			}
			if spec.Color != "" {
				if _, err := d.inv.EnterAttribute(ctx, "color", nlu.CapitalizeName(spec.Color)); err != nil {
					d.emitError(ctx, err)
					return
				}
			}
			dtos = append(dtos, elem.DTO())
		}
		d.emit(ctx, Event{Type: EventElementsAdded, Elements: dtos})

	case nlu.IntentSetAttribute:
		value := cmd.Entity
		if cmd.Attribute == "cantidad" {
			// Normalize a bare numeric capture; non-numbers pass through.
			if _, err := strconv.Atoi(value); err != nil {
				logging.Debugw("non-numeric quantity capture", "value", value)
			}
		}
		if _, err := d.inv.EnterAttribute(ctx, cmd.Attribute, value); err != nil {
			d.emitError(ctx, err)
			return
		}
		d.emit(ctx, Event{Type: EventAttributeSet, Key: cmd.Attribute, Value: value})

	case nlu.IntentStartRecording:
		d.emit(ctx, Event{Type: EventStartRecording})

	case nlu.IntentStopRecording:
		d.emit(ctx, Event{Type: EventStopRecording})

	default:
		d.emit(ctx, Event{Type: EventCommandNotRecognized, Command: cmd.Raw})
	}
}

func (d *Dispatcher) capturePhoto(ctx context.Context) {
	fc := d.frameCache()
	if fc == nil {
		d.emitError(ctx, ErrNoFrameCache)
		return
	}
	path, err := fc.Capture()
	if err != nil {
		d.emitError(ctx, err)
		return
	}
	// Record the capture against the current element when one is selected;
	// a missing context only skips the row, the capture itself succeeded.
	if _, err := d.inv.SaveImage(ctx, path, ""); err != nil {
		if errors.Is(err, inventory.ErrNoSpaceSelected) || errors.Is(err, inventory.ErrNoElementSelected) {
			logging.Debugw("capture not linked to inventory", "path", path, "reason", err.Error())
		} else {
			logging.Warnw("failed to record capture", "path", path, "err", err)
		}
	}
	d.emit(ctx, Event{Type: EventPhotoCaptured, Path: path})
}

func (d *Dispatcher) emitError(ctx context.Context, err error) {
	logging.Warnw("command failed", "err", err)
	d.emit(ctx, Event{Type: EventError, Message: errorMessage(err)})
}

func (d *Dispatcher) emit(ctx context.Context, e Event) {
	select {
	case d.events <- e:
	case <-ctx.Done():
		logging.Warnw("session closed before event delivery", "event", e.Type)
	}
}

// errorMessage maps precondition errors to the short messages the remote
// client matches on.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoFrameCache):
		return "no frame cache"
	case errors.Is(err, media.ErrNoFrame):
		return "no frame available"
	case errors.Is(err, media.ErrCooldown):
		return err.Error()
	case errors.Is(err, inventory.ErrNoInventorySelected):
		return "no inventory selected"
	case errors.Is(err, inventory.ErrNoSpaceSelected):
		return "no space selected"
	case errors.Is(err, inventory.ErrNoElementSelected):
		return "no element selected"
	default:
		return err.Error()
	}
}
