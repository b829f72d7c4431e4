package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/santahub/internal/app/system/messaging"
)

// ErrSendFailed is returned by FakeMessenger for users listed in FailFor.
var ErrSendFailed = errors.New("fake send failed")

// SentMessage is one message captured by FakeMessenger.
type SentMessage struct {
	UserID string
	Text   string
}

// FakeMessenger is an in-memory messaging.Transport.
type FakeMessenger struct {
	mu       sync.Mutex
	Sent     []SentMessage
	FailFor  map[string]bool               // user IDs whose sends fail
	Users    map[string]string             // email -> user ID
	Profiles map[string]messaging.Profile  // user ID -> profile
	Broken   bool                          // every directory call reports a transport error
}

// NewFakeMessenger returns an empty FakeMessenger.
func NewFakeMessenger() *FakeMessenger {
	return &FakeMessenger{
		FailFor:  map[string]bool{},
		Users:    map[string]string{},
		Profiles: map[string]messaging.Profile{},
	}
}

// SendDirectMessage records the message, or fails for users in FailFor.
func (f *FakeMessenger) SendDirectMessage(ctx context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailFor[userID] {
		return ErrSendFailed
	}
	f.Sent = append(f.Sent, SentMessage{UserID: userID, Text: text})
	return nil
}

// LookupUserByEmail resolves emails registered in Users.
func (f *FakeMessenger) LookupUserByEmail(ctx context.Context, email string) messaging.LookupResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Broken {
		return messaging.LookupResult{Kind: messaging.ResultTransportError, Err: ErrSendFailed}
	}
	id, ok := f.Users[email]
	if !ok {
		return messaging.LookupResult{Kind: messaging.ResultNotFound}
	}
	return messaging.LookupResult{Kind: messaging.ResultOK, User: messaging.User{ID: id, Email: email}}
}

// FetchUserProfile returns profiles registered in Profiles.
func (f *FakeMessenger) FetchUserProfile(ctx context.Context, userID string) messaging.ProfileResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Broken {
		return messaging.ProfileResult{Kind: messaging.ResultTransportError, Err: ErrSendFailed}
	}
	p, ok := f.Profiles[userID]
	if !ok {
		return messaging.ProfileResult{Kind: messaging.ResultNotFound}
	}
	return messaging.ProfileResult{Kind: messaging.ResultOK, Profile: p}
}

// To returns the messages sent to userID.
func (f *FakeMessenger) To(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.Sent {
		if m.UserID == userID {
			out = append(out, m.Text)
		}
	}
	return out
}

// Count returns the number of messages sent.
func (f *FakeMessenger) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
