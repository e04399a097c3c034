package model

// HandlerType identifies which conversation type owns a request. The
// values are persisted inside user records and double as NLU intent names.
type HandlerType string

const (
	HandlerDeparting HandlerType = "schedule_departing"
	HandlerArriving  HandlerType = "schedule_arriving"
	HandlerFeedback  HandlerType = "feedback"
	HandlerHelp      HandlerType = "help"
	HandlerWelcome   HandlerType = "welcome"
	HandlerMenu      HandlerType = "display_menu"
	HandlerHello     HandlerType = "hello"
	HandlerThanks    HandlerType = "thanks"
	HandlerUnknown   HandlerType = "unknown"
)

// RequestState is the state-machine position of an active conversation.
type RequestState string

const (
	StateNew             RequestState = "NEW"
	StateWaitOrigin      RequestState = "WAIT_ORIGIN"
	StateWaitDestination RequestState = "WAIT_DESTINATION"
	StateReady           RequestState = "READY"
	StateDone            RequestState = "DONE"
	// StateWaitResponse is used by the feedback conversation only.
	StateWaitResponse RequestState = "WAIT_RESPONSE"
)

// EventKind classifies a normalized inbound Messenger event.
type EventKind string

const (
	EventText       EventKind = "text"
	EventLocation   EventKind = "location"
	EventPostback   EventKind = "postback"
	EventQuickReply EventKind = "quickReply"
	EventAttachment EventKind = "attachment"
	EventUnknown    EventKind = "unknown"
)
