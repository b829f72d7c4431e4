// Package messaging talks to the chat workspace: direct messages out,
// directory lookups in.
//
// Directory calls return tagged results rather than (value, error) pairs
// because "no such user" is an expected answer, not a failure, and callers
// treat it differently from a transport problem.
package messaging

import (
	"context"
	"errors"
)

// ErrNotFound reports that the directory has no such user.
var ErrNotFound = errors.New("messaging: user not found")

// ResultKind tags the outcome of a directory call.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultNotFound
	ResultTransportError
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultNotFound:
		return "not_found"
	case ResultTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// User is a directory entry resolved by email.
type User struct {
	ID          string
	Email       string
	DisplayName string
}

// Profile is the time zone metadata the directory holds for a user.
// Either field may be nil when the directory does not know it.
type Profile struct {
	TimeZone  *string
	UTCOffset *int // seconds east of UTC
	RealName  string
}

// LookupResult is the outcome of LookupUserByEmail.
type LookupResult struct {
	Kind ResultKind
	User User  // set when Kind == ResultOK
	Err  error // set when Kind == ResultTransportError
}

// ProfileResult is the outcome of FetchUserProfile.
type ProfileResult struct {
	Kind    ResultKind
	Profile Profile
	Err     error
}

// AsError folds a result kind into an error for callers that only care
// whether they got a value.
func AsError(kind ResultKind, err error) error {
	switch kind {
	case ResultOK:
		return nil
	case ResultNotFound:
		return ErrNotFound
	default:
		if err == nil {
			err = errors.New("messaging: transport error")
		}
		return err
	}
}

// Sender delivers direct messages.
type Sender interface {
	SendDirectMessage(ctx context.Context, userID, text string) error
}

// Directory resolves users.
type Directory interface {
	LookupUserByEmail(ctx context.Context, email string) LookupResult
	FetchUserProfile(ctx context.Context, userID string) ProfileResult
}

// Transport is everything the service needs from the chat workspace.
type Transport interface {
	Sender
	Directory
}
