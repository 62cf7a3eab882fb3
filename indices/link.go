package indices

import "strings"

// LogicalLink combines the exceedance masks of a multi-variable
// computation into one, element by element.
type LogicalLink string

const (
	// LinkAnd keeps a step only when every variable exceeds.
	LinkAnd LogicalLink = "and"
	// LinkOr keeps a step when any variable exceeds.
	LinkOr LogicalLink = "or"
)

// ParseLogicalLink resolves "and"/"&&" or "or"/"||".
func ParseLogicalLink(name string) (LogicalLink, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "and", "&&":
		return LinkAnd, nil
	case "or", "||":
		return LinkOr, nil
	default:
		return "", newConfigError("unknown logical link %q", name)
	}
}

// Valid reports whether the link is one of the defined values.
func (l LogicalLink) Valid() bool { return l == LinkAnd || l == LinkOr }

// Combine merges per-variable masks into one. All masks must share the
// same length.
func (l LogicalLink) Combine(masks ...[]bool) ([]bool, error) {
	if len(masks) == 0 {
		return nil, newDataError("no masks to combine")
	}
	out := make([]bool, len(masks[0]))
	copy(out, masks[0])
	for _, m := range masks[1:] {
		if len(m) != len(out) {
			return nil, newDataError("mask length mismatch: %d vs %d", len(m), len(out))
		}
		for i, b := range m {
			if l == LinkAnd {
				out[i] = out[i] && b
			} else {
				out[i] = out[i] || b
			}
		}
	}
	return out, nil
}
