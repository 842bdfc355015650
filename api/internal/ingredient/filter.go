package ingredient

import "strings"

// DefaultExcluded lists detector classes that are never ingredients:
// people, tableware, furniture and electronics from the general-purpose vocabulary.
var DefaultExcluded = []string{
	"person", "bottle", "cup", "knife", "fork", "spoon", "bowl",
	"dining table", "chair", "cell phone", "laptop", "book",
	"tv", "remote", "keyboard", "mouse", "vase", "potted plant",
	"wine glass", "sink", "refrigerator",
}

// Filter drops non-food labels. It is read-only after construction.
type Filter struct {
	excluded map[string]struct{}
}

// NewFilter builds a Filter over the given exclusion list; nil means DefaultExcluded.
func NewFilter(excluded []string) *Filter {
	if excluded == nil {
		excluded = DefaultExcluded
	}
	f := &Filter{excluded: make(map[string]struct{}, len(excluded))}
	for _, l := range excluded {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			f.excluded[l] = struct{}{}
		}
	}
	return f
}

// Excludes reports whether label is on the exclusion list, ignoring case.
func (f *Filter) Excludes(label string) bool {
	_, ok := f.excluded[strings.ToLower(label)]
	return ok
}

// Apply returns labels minus excluded ones, preserving the input order and casing.
func (f *Filter) Apply(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if f.Excludes(l) {
			continue
		}
		out = append(out, l)
	}
	return out
}
