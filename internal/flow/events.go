package flow

// Event is an inbound, transport-agnostic user action. The closed set of
// implementations below is everything the state machine accepts.
type Event interface {
	isEvent()
}

// StartTrigger begins a fresh order, discarding any previous session.
type StartTrigger struct {
	ClientName string
}

// TextMessage carries free text (address, phone, or bottle count, depending
// on the stage).
type TextMessage struct {
	Text string
}

// LocationMessage carries shared geolocation coordinates.
type LocationMessage struct {
	Lat float64
	Lon float64
}

// ContactMessage carries a shared contact's phone number.
type ContactMessage struct {
	Phone string
}

// CalendarSelect picks a day on the currently displayed calendar page.
type CalendarSelect struct {
	Day int
}

// NavDirection distinguishes calendar navigation targets.
type NavDirection string

const (
	// NavNext advances the calendar cursor one month forward.
	NavNext NavDirection = "next"
	// NavPrev moves the cursor one month back, bounded by the minimum
	// navigable month.
	NavPrev NavDirection = "prev"
)

// CalendarNav pages the calendar without selecting a date.
type CalendarNav struct {
	Direction NavDirection
}

func (StartTrigger) isEvent()    {}
func (TextMessage) isEvent()     {}
func (LocationMessage) isEvent() {}
func (ContactMessage) isEvent()  {}
func (CalendarSelect) isEvent()  {}
func (CalendarNav) isEvent()     {}

// ReplyKind tells the transport layer how to render one reply.
type ReplyKind int

const (
	// ReplyText is a plain text message.
	ReplyText ReplyKind = iota
	// ReplyAskLocation is text with a location-request reply keyboard.
	ReplyAskLocation
	// ReplyAskContact is text with a contact-request reply keyboard.
	ReplyAskContact
	// ReplyCalendar is a new calendar message.
	ReplyCalendar
	// ReplyEditCalendar re-renders the existing calendar message.
	ReplyEditCalendar
	// ReplyEditText replaces the calendar message with plain text.
	ReplyEditText
)

// Reply is a single outbound UI artifact.
type Reply struct {
	Kind ReplyKind
	Text string
	Page *Page
}

// Output is the result of handling one event: replies in send order, plus
// whether the session reached a terminal state and was discarded.
type Output struct {
	Replies []Reply
	Done    bool
}

func textReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}
