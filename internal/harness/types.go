package harness

// Trace event types.
const (
	EventStep   = "step"
	EventSignal = "signal"
)

// TraceEvent is one entry of a scenario trace: either a step as executed or
// a signal the store emitted while executing it.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Step int    `json:"step"`
	Type string `json:"type"`

	// Step entries.
	Op          string `json:"op,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Alias       string `json:"alias,omitempty"`
	Handle      string `json:"handle,omitempty"`
	HumanID     string `json:"human_id,omitempty"`
	Description string `json:"description,omitempty"`
	Batch       bool   `json:"batch,omitempty"`
	Error       string `json:"error,omitempty"`

	// Signal entries.
	Signal  string   `json:"signal,omitempty"`
	Handles []string `json:"handles,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Signals returns the emitted signal names in order.
func (r *Result) Signals() []string {
	out := []string{}
	for _, e := range r.Trace {
		if e.Type == EventSignal {
			out = append(out, e.Signal)
		}
	}
	return out
}
