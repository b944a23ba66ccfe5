package recorder

import "time"

// Outcome classifies how a user action ended.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeValidation Outcome = "validation"
	OutcomeService    Outcome = "service"
	OutcomeTransport  Outcome = "transport"
	OutcomeEmpty      Outcome = "empty"
	OutcomeStub       Outcome = "not_implemented"
	OutcomeInternal   Outcome = "internal"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomeOK, OutcomeValidation, OutcomeService, OutcomeTransport,
	OutcomeEmpty, OutcomeStub, OutcomeInternal,
}

// ActionEvent is one user-triggered command and how it went.
type ActionEvent struct {
	At       time.Time
	ChatID   int64
	Action   string // "add", "compare", "history", ...
	Subject  string
	Outcome  Outcome
	Detail   string
	Duration time.Duration
}

// Recorder keeps a local journal of user actions for diagnostics.
type Recorder interface {
	RecordAction(evt *ActionEvent) error
	// CountByOutcome tallies journaled events of action, keyed by outcome.
	CountByOutcome(action string) (map[Outcome]int, error)
	Close() error
}
