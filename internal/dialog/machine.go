// Package dialog owns the per-chat conversation state machine: it
// derives events from inbound messages, applies the transition table,
// and runs the side-effecting entry actions.
package dialog

// State is a conversation session state.
type State int

const (
	// WaitingMessage is the idle state: no flow in progress.
	WaitingMessage State = iota
	// WaitingPicture means /add was received and a file is expected.
	WaitingPicture
	// WaitingName means a file arrived and a face name is expected.
	WaitingName
	// OverrideName means the chosen name collides with a stored face
	// and a yes/no answer is expected.
	OverrideName
	// Final marks a finished flow; the session resets to idle.
	Final
)

func (s State) String() string {
	switch s {
	case WaitingMessage:
		return "waitingmessage"
	case WaitingPicture:
		return "waitingpicture"
	case WaitingName:
		return "waitingname"
	case OverrideName:
		return "overridename"
	case Final:
		return "final"
	}
	return "unknown"
}

// Event drives session transitions.
type Event int

const (
	EventNone Event = iota
	EventSingleCommand
	EventAdd
	EventCancel
	EventGotInvalidFile
	EventGotFile
	EventInvalidName
	EventExistingName
	EventCancelOverride
	EventGotName
)

func (e Event) String() string {
	switch e {
	case EventSingleCommand:
		return "singlecommand"
	case EventAdd:
		return "add"
	case EventCancel:
		return "cancel"
	case EventGotInvalidFile:
		return "gotinvalidfile"
	case EventGotFile:
		return "gotfile"
	case EventInvalidName:
		return "invalidname"
	case EventExistingName:
		return "existingname"
	case EventCancelOverride:
		return "canceloverride"
	case EventGotName:
		return "gotname"
	}
	return "none"
}

// Transition returns the state reached by firing event from state and
// whether that transition is legal. It is a pure function, separate
// from the entry-action dispatcher.
func Transition(state State, event Event) (State, bool) {
	switch event {
	case EventSingleCommand:
		if state == WaitingMessage {
			return Final, true
		}
	case EventAdd:
		if state == WaitingMessage {
			return WaitingPicture, true
		}
	case EventCancel:
		if state == WaitingPicture || state == WaitingName || state == OverrideName {
			return WaitingMessage, true
		}
	case EventGotInvalidFile:
		if state == WaitingPicture {
			return WaitingPicture, true
		}
	case EventGotFile:
		if state == WaitingPicture {
			return WaitingName, true
		}
	case EventInvalidName:
		if state == WaitingName {
			return WaitingName, true
		}
	case EventExistingName:
		if state == WaitingName {
			return OverrideName, true
		}
	case EventCancelOverride:
		if state == OverrideName {
			return WaitingName, true
		}
	case EventGotName:
		if state == WaitingName || state == OverrideName {
			return Final, true
		}
	}
	return state, false
}
