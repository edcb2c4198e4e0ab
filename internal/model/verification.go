package model

// Decision is the verification judgement fed into the orchestrator. It
// is an explicit input rather than a constant inside the state machine
// so real log analysis can be substituted without touching orchestration.
type Decision struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Pass returns a passing decision.
func Pass() Decision { return Decision{Passed: true} }

// Fail returns a failing decision with a reason.
func Fail(reason string) Decision { return Decision{Passed: false, Reason: reason} }

// VerificationOutcome is the transient result handed back to the
// caller of the pipeline. Success refers to the orchestration itself,
// independent of the boolean recorded on the task.
type VerificationOutcome struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	TransactionID *string `json:"transaction_id,omitempty"`
}
