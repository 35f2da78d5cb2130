package model

// TileEdit is an admin change to a tile's configuration
type TileEdit struct {
	Items        []string
	Value        int
	DisplayTitle string
	RequireAll   bool
}

// OverrideAction is a manual completion change
type OverrideAction string

const (
	OverrideAdd    OverrideAction = "add"
	OverrideRemove OverrideAction = "remove"
)

// IsValid reports whether the action is known
func (a OverrideAction) IsValid() bool {
	return a == OverrideAdd || a == OverrideRemove
}
