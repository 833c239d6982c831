package phase

// Outcome classifies a single model reply.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeEmptyOutput   Outcome = "empty_output"
	OutcomeParseError    Outcome = "parse_error"
	OutcomeInvalidOutput Outcome = "invalid_output"
	OutcomeTransport     Outcome = "transport_error"
)

// Retryable reports whether the reply is unusable and the inner loop should
// ask again.
func (o Outcome) Retryable() bool {
	return o == OutcomeEmptyOutput || o == OutcomeParseError
}
