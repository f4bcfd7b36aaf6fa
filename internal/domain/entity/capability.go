package entity

// CapabilityRequest is the uniform input of every capability
type CapabilityRequest struct {
	Intent         CapabilityIntent `json:"intent"`
	Text           string           `json:"question"`
	History        []Message        `json:"conversation_history,omitempty"`
	ConversationID string           `json:"conversation_id,omitempty"`
}

// Passage is a retrieved policy snippet with its source metadata
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// QueryResult is the tabular output of a read-only query
type QueryResult struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the query matched nothing
func (q *QueryResult) Empty() bool {
	return q == nil || len(q.Rows) == 0
}

// CapabilityResult is the structured outcome of a capability invocation
type CapabilityResult struct {
	Intent      CapabilityIntent     `json:"intent"`
	Text        string               `json:"text"`
	SQL         string               `json:"sql,omitempty"`
	Query       *QueryResult         `json:"query,omitempty"`
	Reservation *Reservation         `json:"reservation,omitempty"`
	Passages    []Passage            `json:"passages,omitempty"`
	Pending     *PendingCancellation `json:"pending,omitempty"`

	// Mutated is true only when persistent state changed
	Mutated bool `json:"mutated"`
}
