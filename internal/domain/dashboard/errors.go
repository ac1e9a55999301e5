package dashboard

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("dashboard: not authenticated")
	ErrNotConfirmed     = errors.New("dashboard: delete not confirmed")
	ErrUnknownLead      = errors.New("dashboard: unknown lead")
	ErrSuperseded       = errors.New("dashboard: fetch superseded")
	ErrDeleteInFlight   = errors.New("dashboard: another delete is in progress")
)

// FetchError is a failed fetch of the lead collection.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch leads: %v", e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// DeleteError is a failed delete; the cached list was left unchanged.
type DeleteError struct {
	ID  string
	Err error
}

func (e *DeleteError) Error() string { return fmt.Sprintf("delete lead %s: %v", e.ID, e.Err) }

func (e *DeleteError) Unwrap() error { return e.Err }
