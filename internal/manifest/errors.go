package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no manifest matches.
	ErrNotFound = errors.New("manifest not found")
	// ErrDuplicate is returned when appending a hash that already exists.
	ErrDuplicate = errors.New("manifest already exists")
	// ErrChainBroken matches every *ChainError.
	ErrChainBroken = errors.New("manifest chain broken")
)

// ChainError locates the first record that fails verification.
type ChainError struct {
	Seq    int64
	Hash   string
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("manifest chain broken at seq %d (%s): %s", e.Seq, e.Hash, e.Reason)
}

func (e *ChainError) Is(target error) bool {
	return target == ErrChainBroken
}
