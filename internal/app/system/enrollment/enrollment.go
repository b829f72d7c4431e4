// Package enrollment brings people from the chat workspace directory into
// the exchange: Import records them as contacts and Invite opens the
// onboarding conversation with each imported contact.
package enrollment

import (
	"context"
	"errors"
	"sync"
	"time"

	onboardingstore "github.com/dalemusser/santahub/internal/app/store/onboarding"
	"github.com/dalemusser/santahub/internal/app/system/inputval"
	"github.com/dalemusser/santahub/internal/app/system/messaging"
	"github.com/dalemusser/santahub/internal/app/system/msgtemplates"
	"github.com/dalemusser/santahub/internal/app/system/normalize"
	"github.com/dalemusser/santahub/internal/app/system/onboarding"
	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrInviteRunning is returned when an invite batch is requested while another is running.
var ErrInviteRunning = errors.New("enrollment: invites already being sent")

type ContactStore interface {
	Import(ctx context.Context, email, chatUserID, displayName string) (models.Contact, bool, error)
	ListByStatus(ctx context.Context, statuses ...string) ([]models.Contact, error)
	Advance(ctx context.Context, id primitive.ObjectID, to string, at time.Time) (bool, error)
}

type SessionStore interface {
	Create(ctx context.Context, contactID primitive.ObjectID, chatUserID, state string) (models.OnboardingSession, error)
	ByContact(ctx context.Context, contactID primitive.ObjectID) (models.OnboardingSession, error)
	Save(ctx context.Context, id primitive.ObjectID, fromState, toState string, fields models.OnboardingFields) (bool, error)
}

// Renderer renders a named message template.
type Renderer interface {
	Render(name string, data msgtemplates.Data) (string, error)
}

// Import outcomes for a single address.
const (
	StatusImported = "imported"
	StatusExisting = "existing"
	StatusInvalid  = "invalid"
	StatusNotFound = "not_found"
	StatusFailed   = "failed"
)

// ImportResult is the outcome for one address.
type ImportResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ImportReport tallies an import. Existing, invalid and unknown
// addresses count as skipped; directory or storage errors as failed.
type ImportReport struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Results  []ImportResult `json:"results"`
}

// InviteReport tallies an invite batch.
type InviteReport struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Service imports and invites contacts.
type Service struct {
	Directory messaging.Directory
	Messenger messaging.Sender
	Contacts  ContactStore
	Sessions  SessionStore
	Templates Renderer
	Log       *zap.Logger

	EventName    string
	AdminMention string
	SendDelay    time.Duration

	Now func() time.Time

	mu sync.Mutex
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Import resolves each address against the directory and stores a contact
// for every one that belongs to a workspace member. Duplicates in emails
// are handled once.
func (s *Service) Import(ctx context.Context, emails []string) ImportReport {
	var rep ImportReport
	seen := make(map[string]bool, len(emails))

	for _, raw := range emails {
		email := normalize.Email(raw)
		if seen[email] {
			continue
		}
		seen[email] = true

		res := s.importOne(ctx, email)
		switch res.Status {
		case StatusImported:
			rep.Imported++
		case StatusFailed:
			rep.Failed++
		default:
			rep.Skipped++
		}
		rep.Results = append(rep.Results, res)
	}

	s.Log.Info("contact import finished",
		zap.Int("imported", rep.Imported),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed))
	return rep
}

func (s *Service) importOne(ctx context.Context, email string) ImportResult {
	res := ImportResult{Email: email}
	if !inputval.IsValidEmail(email) {
		res.Status = StatusInvalid
		return res
	}

	lctx, cancel := context.WithTimeout(ctx, timeouts.Send())
	found := s.Directory.LookupUserByEmail(lctx, email)
	cancel()

	switch found.Kind {
	case messaging.ResultNotFound:
		res.Status = StatusNotFound
		return res
	case messaging.ResultTransportError:
		s.Log.Warn("directory lookup failed", zap.String("email", email), zap.Error(found.Err))
		res.Status, res.Error = StatusFailed, errString(found.Err)
		return res
	}

	_, created, err := s.Contacts.Import(ctx, email, found.User.ID, found.User.DisplayName)
	if err != nil {
		s.Log.Error("contact not stored", zap.String("email", email), zap.Error(err))
		res.Status, res.Error = StatusFailed, err.Error()
		return res
	}
	if !created {
		res.Status = StatusExisting
		return res
	}
	res.Status = StatusImported
	return res
}

// Invite sends the invitation to every contact still in the imported
// status and opens its onboarding session. A contact moves to invited
// only after its invitation was delivered, so failures are retried by the
// next call.
func (s *Service) Invite(ctx context.Context) (InviteReport, error) {
	if !s.mu.TryLock() {
		return InviteReport{}, ErrInviteRunning
	}
	defer s.mu.Unlock()

	var rep InviteReport
	list, err := s.Contacts.ListByStatus(ctx, models.ContactImported)
	if err != nil {
		return rep, err
	}

	sends := 0
	for _, c := range list {
		if c.ChatUserID == "" {
			rep.Skipped++
			continue
		}

		sess, err := s.session(ctx, c)
		if err != nil {
			s.Log.Error("onboarding session not opened",
				zap.String("contact_id", c.ID.Hex()), zap.Error(err))
			rep.Failed++
			continue
		}

		if sends > 0 {
			if err := pause(ctx, s.SendDelay); err != nil {
				return rep, err
			}
		}
		sends++

		if err := s.send(ctx, c); err != nil {
			s.Log.Warn("invite send failed",
				zap.String("contact_id", c.ID.Hex()),
				zap.String("user_id", c.ChatUserID),
				zap.Error(err))
			rep.Failed++
			continue
		}

		if _, err := s.Contacts.Advance(ctx, c.ID, models.ContactInvited, s.now()); err != nil {
			s.Log.Error("contact not marked invited", zap.String("contact_id", c.ID.Hex()), zap.Error(err))
		}
		// A fast reply may already have moved the session on.
		if _, err := s.Sessions.Save(ctx, sess.ID,
			string(onboarding.StateInvited), string(onboarding.StateAwaitingConsent), sess.Fields); err != nil {
			s.Log.Error("session not moved to awaiting consent", zap.String("session_id", sess.ID.Hex()), zap.Error(err))
		}
		rep.Sent++
	}

	s.Log.Info("invites finished",
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped))
	return rep, nil
}

// session opens the contact's onboarding session, or returns the one left
// by an earlier invite attempt.
func (s *Service) session(ctx context.Context, c models.Contact) (models.OnboardingSession, error) {
	sess, err := s.Sessions.Create(ctx, c.ID, c.ChatUserID, string(onboarding.StateInvited))
	if errors.Is(err, onboardingstore.ErrSessionExists) {
		return s.Sessions.ByContact(ctx, c.ID)
	}
	return sess, err
}

func (s *Service) send(ctx context.Context, c models.Contact) error {
	text, err := s.Templates.Render(msgtemplates.Invite, msgtemplates.Data{
		EventName:    s.EventName,
		Recipient:    msgtemplates.Person{Name: c.DisplayName},
		AdminMention: s.AdminMention,
	})
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeouts.Send())
	defer cancel()
	return s.Messenger.SendDirectMessage(sendCtx, c.ChatUserID, text)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
