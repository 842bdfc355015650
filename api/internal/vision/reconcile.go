package vision

import "sort"

const (
	// ContestedLabel is the only label both detectors are known to emit for the same object.
	// The custom detector wins when the two overlap.
	ContestedLabel = "orange"

	// OverlapThreshold is the IoU above which a standard ContestedLabel detection
	// is treated as the same object as a custom detection.
	OverlapThreshold = 0.5
)

// LabelSet is an unordered set of detection labels.
type LabelSet map[string]struct{}

func (s LabelSet) Add(label string) { s[label] = struct{}{} }

func (s LabelSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

func (s LabelSet) Len() int { return len(s) }

// Sorted returns the labels in lexical order, never nil.
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Reconcile merges the custom (trusted) and standard detection sets into one label set.
//
// Every custom label is kept. A standard detection labelled ContestedLabel is dropped when
// its box overlaps any custom box with IoU strictly above OverlapThreshold; all other
// standard labels are kept without any overlap check.
func Reconcile(custom, standard []Detection) LabelSet {
	labels := make(LabelSet, len(custom)+len(standard))
	trusted := make([]Box, 0, len(custom))

	for _, d := range custom {
		labels.Add(d.Label)
		trusted = append(trusted, d.Box)
	}

	for _, d := range standard {
		if d.Label == ContestedLabel && overlapsAny(d.Box, trusted) {
			continue
		}
		labels.Add(d.Label)
	}
	return labels
}

// Suppressed reports how many standard detections Reconcile would drop.
func Suppressed(custom, standard []Detection) int {
	trusted := make([]Box, 0, len(custom))
	for _, d := range custom {
		trusted = append(trusted, d.Box)
	}
	n := 0
	for _, d := range standard {
		if d.Label == ContestedLabel && overlapsAny(d.Box, trusted) {
			n++
		}
	}
	return n
}

func overlapsAny(b Box, trusted []Box) bool {
	for _, t := range trusted {
		if IoU(b, t) > OverlapThreshold {
			return true
		}
	}
	return false
}
