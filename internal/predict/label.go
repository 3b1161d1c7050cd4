// Package predict sends hand landmark sets to a remote gesture classifier and
// turns its answer into a directional label.
package predict

import "strings"

// Label is a direction recognized by the classifier.
type Label string

const (
	// LabelNone marks the absence of a recognized direction.
	LabelNone Label = ""
	Up        Label = "up"
	Down      Label = "down"
	Left      Label = "left"
	Right     Label = "right"
)

// Labels is the closed set of directions a classifier may answer with.
var Labels = []Label{Up, Down, Left, Right}

// ParseLabel matches raw case-insensitively against Labels.
func ParseLabel(raw string) (Label, bool) {
	lower := Label(strings.ToLower(raw))
	for _, l := range Labels {
		if lower == l {
			return l, true
		}
	}
	return LabelNone, false
}

func (l Label) String() string {
	if l == LabelNone {
		return "none"
	}
	return string(l)
}
