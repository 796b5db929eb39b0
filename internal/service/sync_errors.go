package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrSharedCreationNotFound = errors.New("shared creation not found")
	// ErrUnusableRecord means a remote record could not be mapped at all.
	ErrUnusableRecord = errors.New("remote record is not a usable shared creation")
)

// DeleteError reports that the remote delete failed. The local copy was
// kept so the delete can be retried.
type DeleteError struct {
	SharedCreationID uuid.UUID
	Err              error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete shared creation %s: remote delete failed, local copy preserved for retry: %v", e.SharedCreationID, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}
