// Package patch computes the minimal set of changed fields between a
// partially populated update request and the current state of an entity.
//
// A field lands in the patch only when it was submitted and differs from the
// stored value. An empty patch means the caller must not touch storage.
package patch

// Outcome classifies an update request after resolution.
type Outcome int

const (
	// Changed means the patch carries at least one field to write.
	Changed Outcome = iota
	// NothingSubmitted means the request carried no fields at all.
	NothingSubmitted
	// Unchanged means every submitted field already matched.
	Unchanged
)

func (o Outcome) String() string {
	switch o {
	case Changed:
		return "changed"
	case NothingSubmitted:
		return "nothing_submitted"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Message is the informational text returned for no-op outcomes.
func (o Outcome) Message() string {
	switch o {
	case NothingSubmitted:
		return "no changes submitted"
	case Unchanged:
		return "no changes detected"
	default:
		return ""
	}
}

func classify(submitted, changed bool) Outcome {
	switch {
	case !submitted:
		return NothingSubmitted
	case !changed:
		return Unchanged
	default:
		return Changed
	}
}
