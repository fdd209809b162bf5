package grid

import (
	"fmt"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
)

// OutOfBoundsError reports a cell access outside the grid that row growth
// could not serve: x beyond the column count, a negative coordinate, or y
// beyond the row count while growth is disabled.
type OutOfBoundsError struct {
	X, Y int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("out of bounds access: x: %d, y: %d", e.X, e.Y)
}

// Code returns [gerrors.ErrCodeOutOfBounds].
func (e *OutOfBoundsError) Code() gerrors.Code { return gerrors.ErrCodeOutOfBounds }

// MismatchedItemError reports a grid cell referencing an id that is not in
// the registry. It means the grid/registry consistency invariant was broken
// and indicates a bug, not a caller mistake.
type MismatchedItemError struct {
	ID string
}

func (e *MismatchedItemError) Error() string {
	return fmt.Sprintf("grid item not matching registered items: id: %s", e.ID)
}

// Code returns [gerrors.ErrCodeMismatchedGridItem].
func (e *MismatchedItemError) Code() gerrors.Code { return gerrors.ErrCodeMismatchedGridItem }

// ItemNotFoundError reports an operation on an unregistered id.
type ItemNotFoundError struct {
	ID string
}

func (e *ItemNotFoundError) Error() string { return fmt.Sprintf("item not found: %s", e.ID) }

// Code returns [gerrors.ErrCodeItemNotFound].
func (e *ItemNotFoundError) Code() gerrors.Code { return gerrors.ErrCodeItemNotFound }

// ItemExistsError reports an add with an id that is already registered.
type ItemExistsError struct {
	ID string
}

func (e *ItemExistsError) Error() string { return fmt.Sprintf("item already exists: %s", e.ID) }

// Code returns [gerrors.ErrCodeItemAlreadyExists].
func (e *ItemExistsError) Code() gerrors.Code { return gerrors.ErrCodeItemAlreadyExists }
