package session

import "github.com/inventory-voice-lab/internal/inventory"

// Outbound event types delivered to the signaling layer for forwarding to
// the remote client. Every dispatched command produces exactly one event.
const (
	EventPhotoCaptured        = "photo_captured"
	EventEnterSpace           = "enter_space"
	EventEnterElement         = "enter_element"
	EventElementsAdded        = "elements_added"
	EventAttributeSet         = "attribute_set"
	EventStartRecording       = "start_recording"
	EventStopRecording        = "stop_recording"
	EventCommandNotRecognized = "command_not_recognized"
	EventError                = "error"
)

// Event is the JSON-shaped outbound notification.
type Event struct {
	Type     string                 `json:"type"`
	Path     string                 `json:"path,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Command  string                 `json:"command,omitempty"`
	Key      string                 `json:"key,omitempty"`
	Value    string                 `json:"value,omitempty"`
	Space    *inventory.SpaceDTO    `json:"space,omitempty"`
	Element  *inventory.ElementDTO  `json:"element,omitempty"`
	Elements []inventory.ElementDTO `json:"elements,omitempty"`
}
