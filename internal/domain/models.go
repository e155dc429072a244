package domain

// Question is a single quiz item. Answer is kept raw; matching normalizes it.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// State is the logical position of a user's session.
type State int

const (
	StateIdle State = iota
	StateQuestionActive
	StateAfterAnswer
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuestionActive:
		return "question_active"
	case StateAfterAnswer:
		return "after_answer"
	}
	return "unknown"
}

// EventKind enumerates what a user can ask the bot to do.
type EventKind int

const (
	EventStart EventKind = iota
	EventNewQuestion
	EventAnswer
	EventSurrender
	EventViewScore
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventNewQuestion:
		return "new_question"
	case EventAnswer:
		return "answer"
	case EventSurrender:
		return "surrender"
	case EventViewScore:
		return "view_score"
	}
	return "unknown"
}

// Event is an inbound user action. Text is only meaningful for EventAnswer.
type Event struct {
	Kind EventKind
	Text string
}

// Keyboard selects which reply keyboard the transport renders.
type Keyboard int

const (
	// KeyboardActive offers new question, surrender and score.
	KeyboardActive Keyboard = iota
	// KeyboardAfterAnswer drops the surrender button.
	KeyboardAfterAnswer
)

// Response is what the engine wants delivered back to the user.
type Response struct {
	Text     string   `json:"text"`
	Hint     bool     `json:"hint"`
	HintText string   `json:"hintText,omitempty"`
	State    State    `json:"-"`
	Keyboard Keyboard `json:"-"`
}

// Score is a user's lifetime tally.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Percent returns Correct/Total*100, or 0 when nothing was attempted.
func (s Score) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total) * 100
}
