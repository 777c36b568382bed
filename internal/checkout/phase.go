package checkout

// Phase is the single tagged value describing where a checkout session is.
// The express controller, progressive disclosure and the orchestrator all
// consume this one value instead of deriving their own booleans, so the UI
// can never see contradictory states.
type Phase int

// Checkout phases, in strict order.
const (
	PhaseAddress Phase = iota
	PhaseShipping
	PhasePayment
	PhaseReview
	PhaseCompleted
)

// String returns the phase name for logs and API payloads.
func (p Phase) String() string {
	switch p {
	case PhaseAddress:
		return "address"
	case PhaseShipping:
		return "shipping"
	case PhasePayment:
		return "payment"
	case PhaseReview:
		return "review"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
