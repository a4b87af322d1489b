package staleness

// SynthesisReason explains why a placeholder allocation record was created.
type SynthesisReason string

const (
	// SynthesizedUnreachable: an unreachability notification named an
	// object that was never created or seen.
	SynthesizedUnreachable SynthesisReason = "unreachable_unseen"

	// SynthesizedDOMChild: a DOM child was observed without being live.
	SynthesizedDOMChild SynthesisReason = "dom_child"
)

// Sizes reports table sizes at a flush boundary.
type Sizes struct {
	Live     int
	Pending  int
	DOMNodes int
	Usage    int
}

// Observer receives analysis notifications, typically for metrics.
// Calls happen on the analysis goroutine and must not block.
type Observer interface {
	Synthesized(reason SynthesisReason)
	Revived()
	Emitted(t ObjectType)
	Flushed(records int, sizes Sizes)
}

type nopObserver struct{}

func (nopObserver) Synthesized(SynthesisReason) {}
func (nopObserver) Revived() {}
func (nopObserver) Emitted(ObjectType) {}
func (nopObserver) Flushed(int, Sizes) {}
