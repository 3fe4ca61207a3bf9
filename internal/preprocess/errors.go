package preprocess

import "fmt"

// SchemaMismatchError reports a table that is missing a feature column seen
// during fitting, or carries it with an incompatible type.
type SchemaMismatchError struct {
	Column      string
	TypeChanged bool
}

func (e *SchemaMismatchError) Error() string {
	if e.TypeChanged {
		return fmt.Sprintf("column %q changed type since fit", e.Column)
	}
	return fmt.Sprintf("column %q seen during fit is missing", e.Column)
}
