package eval

import "fmt"

// InsufficientDataError reports a training set too small to split into the
// requested number of folds.
type InsufficientDataError struct {
	Rows  int
	Folds int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%d rows cannot be split into %d folds", e.Rows, e.Folds)
}

// DegenerateLabelError reports a label slice containing a single class, for
// which ROC AUC is undefined.
type DegenerateLabelError struct {
	Fold  int
	Class int
	Split string // "training" or "validation", empty outside cross-validation
}

func (e *DegenerateLabelError) Error() string {
	if e.Split == "" {
		return fmt.Sprintf("labels contain only class %d", e.Class)
	}
	return fmt.Sprintf("fold %d %s labels contain only class %d", e.Fold, e.Split, e.Class)
}
