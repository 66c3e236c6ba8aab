package domain

// Verdict classifies a domain's trustworthiness. The integer values are part
// of the persisted record shape and the API contract, so they are fixed.
type Verdict int

const (
	VerdictUnknown Verdict = -1
	VerdictUnsafe  Verdict = 0
	VerdictSafe    Verdict = 1
)

// Known reports whether the verdict is a real classification. Unknown is the
// reputation store's miss signal and is never persisted.
func (v Verdict) Known() bool {
	return v == VerdictSafe || v == VerdictUnsafe
}

func (v Verdict) String() string {
	switch v {
	case VerdictSafe:
		return "safe"
	case VerdictUnsafe:
		return "unsafe"
	default:
		return "unknown"
	}
}
