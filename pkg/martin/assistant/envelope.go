package assistant

// Envelope is the single structured reply produced per user message.
// Text is always set; the optional fields drive UI cards.
type Envelope struct {
	Text           string      `json:"text"`
	Todos          []TodoCard  `json:"todos,omitempty"`
	TodoTitle      string      `json:"todoTitle,omitempty"`
	Events         []EventCard `json:"events,omitempty"`
	EmailDraft     *DraftCard  `json:"emailDraft,omitempty"`
	EmailsAnalyzed bool        `json:"emailsAnalyzed,omitempty"`
}

// TodoCard is one todo row in the reply.
type TodoCard struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// EventCard is one calendar card in the reply. Times are RFC 3339.
type EventCard struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Location  string `json:"location,omitempty"`
}

// DraftCard is a composed email awaiting user confirmation.
type DraftCard struct {
	To      string `json:"to,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
