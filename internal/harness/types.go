package harness

// TraceEvent records one executed step. Addresses are rendered as contract
// or account names so traces are stable and readable in golden files.
type TraceEvent struct {
	Step     int        `json:"step"`
	Kind     string     `json:"kind"` // "call", "transact" or "advance_time"
	Contract string     `json:"contract,omitempty"`
	Method   string     `json:"method,omitempty"`
	From     string     `json:"from,omitempty"`
	Args     []any      `json:"args,omitempty"`
	Seconds  uint64     `json:"seconds,omitempty"`
	Status   string     `json:"status,omitempty"`
	Result   []any      `json:"result,omitempty"`
	Failure  *Failure   `json:"failure,omitempty"`
	Logs     []TraceLog `json:"logs,omitempty"`
}

// Failure describes a failed step.
type Failure struct {
	Code     string `json:"code"`
	Contract string `json:"contract"`
	Method   string `json:"method"`
	Reason   string `json:"reason"`
}

// TraceLog is an event emitted by a step.
type TraceLog struct {
	Contract string         `json:"contract"`
	Event    string         `json:"event"`
	Fields   map[string]any `json:"fields"`
}

// Trace event kinds.
const (
	KindCall        = "call"
	KindTransact    = "transact"
	KindAdvanceTime = "advance_time"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Logs returns every log in the trace, in emission order.
func (r *Result) Logs() []TraceLog {
	var logs []TraceLog
	for _, event := range r.Trace {
		logs = append(logs, event.Logs...)
	}
	return logs
}
