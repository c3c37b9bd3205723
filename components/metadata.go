package components

import "fmt"

// String returns the display name for a Kind.
func (k Kind) String() string {
	names := KindNames()
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// KindNames returns the display names for all kinds.
// The order matches the Kind constants.
func KindNames() []string {
	return []string{"rabbit", "fox", "bush", "grass"}
}

// ParseKind resolves a kind by its display name.
func ParseKind(name string) (Kind, error) {
	for i, n := range KindNames() {
		if n == name {
			return Kind(i), nil
		}
	}
	return KindCount, fmt.Errorf("unknown kind %q", name)
}

// String returns the display name for a State.
func (s State) String() string {
	names := StateNames()
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// StateNames returns the display names for all states.
func StateNames() []string {
	return []string{"normal", "walking", "running", "pursuing_food", "reproducing", "dead"}
}

// String returns the display name for a Strategy.
func (s Strategy) String() string {
	names := StrategyNames()
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// StrategyNames returns the display names for all strategies.
func StrategyNames() []string {
	return []string{"forage_open", "forage_cover", "active_hunt", "ambush"}
}

// String returns the display name for an AreaTag.
func (t AreaTag) String() string {
	if t == TagCovered {
		return "covered"
	}
	return "open"
}
