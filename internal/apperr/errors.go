package apperr

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors for the web layer to map to HTTP status.
var (
	ErrLastAdmin          = errors.New("organization must keep at least one active admin")
	ErrInvalidTransition  = errors.New("invalid status, priority, role or job level value")
	ErrPositionConflict   = errors.New("kanban positions are no longer a contiguous sequence")
	ErrScopeViolation     = errors.New("reference crosses organization boundaries")
	ErrDuplicate          = errors.New("value already exists")
	ErrNotFound           = errors.New("record not found")
	ErrInactiveUser       = errors.New("user is deactivated")
	ErrInvalidCredentials = errors.New("invalid login id or password")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// Store maps raw store failures onto the taxonomy. Semantic errors pass
// through untouched so errors.Is keeps working across the coordinator
// boundary; anything unrecognized is a transient store failure.
func Store(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		ErrLastAdmin, ErrInvalidTransition, ErrPositionConflict, ErrScopeViolation,
		ErrDuplicate, ErrNotFound, ErrInactiveUser, ErrInvalidCredentials,
		ErrPermissionDenied, ErrStoreUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// isDuplicateKey recognizes unique-constraint failures from mysql (1062)
// and sqlite (test store).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
