// Package conversation routes an inbound direct message to the right
// handler: a gift confirmation when the sender has a reminded assignment
// waiting, otherwise the sender's onboarding session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/messaging"
	"github.com/dalemusser/santahub/internal/app/system/msgtemplates"
	"github.com/dalemusser/santahub/internal/app/system/onboarding"
	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Outcome says what a message was used for.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeGiftConfirmed
	OutcomeGiftNotYet
	OutcomeOnboarding
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGiftConfirmed:
		return "gift_confirmed"
	case OutcomeGiftNotYet:
		return "gift_not_yet"
	case OutcomeOnboarding:
		return "onboarding"
	default:
		return "ignored"
	}
}

// Message is one inbound direct message.
type Message struct {
	UserID string
	Text   string
}

// ParticipantStore is the participant persistence the handler needs.
type ParticipantStore interface {
	ByChatUserID(ctx context.Context, chatUserID string) (models.Participant, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Participant, error)
	UpsertByChatUser(ctx context.Context, p models.Participant) (models.Participant, error)
}

// AssignmentStore is the assignment persistence the handler needs.
type AssignmentStore interface {
	FindAwaitingConfirmation(ctx context.Context, eventID string, giverID primitive.ObjectID) (models.Assignment, error)
	MarkGiftSent(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	ClaimReceiverNotification(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// ContactStore is the contact persistence the handler needs.
type ContactStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Contact, error)
	Advance(ctx context.Context, id primitive.ObjectID, to string, at time.Time) (bool, error)
	LinkParticipant(ctx context.Context, id, participantID primitive.ObjectID) error
}

// SessionStore is the onboarding session persistence the handler needs.
type SessionStore interface {
	LatestByChatUser(ctx context.Context, chatUserID string) (models.OnboardingSession, error)
	Save(ctx context.Context, id primitive.ObjectID, fromState, toState string, fields models.OnboardingFields) (bool, error)
}

// Renderer renders a named message template.
type Renderer interface {
	Render(name string, data msgtemplates.Data) (string, error)
}

// Handler processes inbound messages.
type Handler struct {
	Participants ParticipantStore
	Assignments  AssignmentStore
	Contacts     ContactStore
	Sessions     SessionStore
	Messenger    messaging.Transport
	Templates    Renderer
	Log          *zap.Logger

	EventName    string
	AdminMention string
	Now          func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// Handle processes one message. Gift confirmation is checked first.
func (h *Handler) Handle(ctx context.Context, msg Message) (Outcome, error) {
	text := strings.TrimSpace(msg.Text)

	giver, err := h.Participants.ByChatUserID(ctx, msg.UserID)
	switch {
	case err == nil:
		out, handled, err := h.handleGift(ctx, giver, text)
		if err != nil || handled {
			return out, err
		}
	case !errors.Is(err, mongo.ErrNoDocuments):
		return OutcomeIgnored, err
	}

	return h.handleOnboarding(ctx, msg.UserID, text)
}

// handleGift reports handled=false when the message is not a gift reply.
func (h *Handler) handleGift(ctx context.Context, giver models.Participant, text string) (Outcome, bool, error) {
	a, err := h.Assignments.FindAwaitingConfirmation(ctx, models.CurrentEventID, giver.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return OutcomeIgnored, false, nil
	}
	if err != nil {
		return OutcomeIgnored, false, err
	}

	switch onboarding.Classify(text) {
	case onboarding.ReplyYes:
		if err := h.confirmGift(ctx, a, giver); err != nil {
			return OutcomeIgnored, true, err
		}
		return OutcomeGiftConfirmed, true, nil
	case onboarding.ReplyNo:
		receiver, err := h.Participants.GetByID(ctx, a.ReceiverID)
		if err != nil {
			h.Log.Warn("receiver lookup failed", zap.String("receiver_id", a.ReceiverID.Hex()), zap.Error(err))
		}
		h.send(ctx, giver.ChatUserID, msgtemplates.GiftEncourage, h.data(giver, receiver, giver))
		return OutcomeGiftNotYet, true, nil
	default:
		return OutcomeIgnored, false, nil
	}
}

// confirmGift resolves the receiver before touching the assignment, so a
// failed lookup leaves the record as it was and the next "yes" retries.
func (h *Handler) confirmGift(ctx context.Context, a models.Assignment, giver models.Participant) error {
	receiver, err := h.Participants.GetByID(ctx, a.ReceiverID)
	if err != nil {
		return fmt.Errorf("receiver lookup %s: %w", a.ReceiverID.Hex(), err)
	}

	if _, err := h.Assignments.MarkGiftSent(ctx, a.ID, h.now()); err != nil {
		return err
	}
	h.Log.Info("gift confirmed",
		zap.String("assignment_id", a.ID.Hex()),
		zap.String("giver_id", giver.ID.Hex()))

	// The claim comes before the send: a failed send is not retried, but a
	// duplicate confirmation can never notify the receiver twice.
	claimed, err := h.Assignments.ClaimReceiverNotification(ctx, a.ID)
	if err != nil {
		return err
	}
	if claimed && receiver.ChatUserID != "" {
		h.send(ctx, receiver.ChatUserID, msgtemplates.ReceiverGiftSent, h.data(giver, receiver, receiver))
	}

	h.send(ctx, giver.ChatUserID, msgtemplates.GiftSentAck, h.data(giver, receiver, giver))
	return nil
}

func (h *Handler) handleOnboarding(ctx context.Context, userID, text string) (Outcome, error) {
	sess, err := h.Sessions.LatestByChatUser(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.Log.Debug("message from unknown user ignored", zap.String("user_id", userID))
		return OutcomeIgnored, nil
	}
	if err != nil {
		return OutcomeIgnored, err
	}

	state, err := onboarding.ParseState(sess.State)
	if err != nil {
		h.Log.Warn("session in unknown state", zap.String("session_id", sess.ID.Hex()), zap.Error(err))
		return OutcomeIgnored, nil
	}

	step, err := onboarding.Advance(state, sess.Fields, text)
	if errors.Is(err, onboarding.ErrTerminal) {
		return OutcomeIgnored, nil
	}
	if err != nil {
		return OutcomeIgnored, err
	}

	recipient, err := h.apply(ctx, sess, step)
	if err != nil {
		return OutcomeIgnored, err
	}

	if step.Advanced {
		saved, err := h.Sessions.Save(ctx, sess.ID, string(state), string(step.State), step.Fields)
		if err != nil {
			return OutcomeIgnored, err
		}
		if !saved {
			h.Log.Warn("session moved concurrently; reply dropped",
				zap.String("session_id", sess.ID.Hex()),
				zap.String("from", state.String()))
			return OutcomeIgnored, nil
		}
	}

	if step.Prompt != onboarding.PromptNone {
		h.send(ctx, userID, string(step.Prompt), msgtemplates.Data{
			EventName:    h.EventName,
			Recipient:    recipient,
			AdminMention: h.AdminMention,
		})
	}
	return OutcomeOnboarding, nil
}

// apply carries out the step's side effect before the session is saved.
// Every effect is idempotent, so a lost save race is harmless.
func (h *Handler) apply(ctx context.Context, sess models.OnboardingSession, step onboarding.Step) (msgtemplates.Person, error) {
	var recipient msgtemplates.Person
	if step.Fields.Name != nil {
		recipient.Name = *step.Fields.Name
	}

	switch step.Effect {
	case onboarding.EffectMarkInProgress:
		_, err := h.Contacts.Advance(ctx, sess.ContactID, models.ContactInProgress, h.now())
		return recipient, err

	case onboarding.EffectMarkDeclined:
		_, err := h.Contacts.Advance(ctx, sess.ContactID, models.ContactDeclined, h.now())
		return recipient, err

	case onboarding.EffectMaterialize:
		p, err := h.materialize(ctx, sess, step.Fields)
		if err != nil {
			return recipient, err
		}
		recipient.Name = p.FullName
		recipient.Address = p.Address
		return recipient, nil
	}
	return recipient, nil
}

func (h *Handler) materialize(ctx context.Context, sess models.OnboardingSession, f models.OnboardingFields) (models.Participant, error) {
	p := models.Participant{
		FullName:   deref(f.Name),
		ChatUserID: sess.ChatUserID,
		Country:    deref(f.Country),
		City:       deref(f.City),
		PostalCode: deref(f.PostalCode),
		Street:     deref(f.Street),
		Phone:      deref(f.Phone),
		Notes:      f.Notes,
		ContactID:  &sess.ContactID,
	}
	if c, err := h.Contacts.GetByID(ctx, sess.ContactID); err == nil {
		p.Email = c.Email
	}

	pctx, cancel := context.WithTimeout(ctx, timeouts.Send())
	prof := h.Messenger.FetchUserProfile(pctx, sess.ChatUserID)
	cancel()
	if prof.Kind == messaging.ResultOK {
		p.TimeZone = prof.Profile.TimeZone
		p.UTCOffset = prof.Profile.UTCOffset
	} else {
		h.Log.Info("no time zone for new participant",
			zap.String("user_id", sess.ChatUserID),
			zap.Stringer("result", prof.Kind))
	}

	stored, err := h.Participants.UpsertByChatUser(ctx, p)
	if err != nil {
		return models.Participant{}, err
	}
	if _, err := h.Contacts.Advance(ctx, sess.ContactID, models.ContactCompleted, h.now()); err != nil {
		return models.Participant{}, err
	}
	if err := h.Contacts.LinkParticipant(ctx, sess.ContactID, stored.ID); err != nil {
		return models.Participant{}, err
	}
	h.Log.Info("participant enrolled",
		zap.String("participant_id", stored.ID.Hex()),
		zap.String("contact_id", sess.ContactID.Hex()))
	return stored, nil
}

func (h *Handler) data(giver, receiver, recipient models.Participant) msgtemplates.Data {
	return msgtemplates.Data{
		EventName:    h.EventName,
		GiverName:    giver.FullName,
		Receiver:     person(receiver),
		Recipient:    person(recipient),
		AdminMention: h.AdminMention,
	}
}

// send renders and delivers one message. Failures are logged, not returned:
// the state change that triggered the message has already been stored.
func (h *Handler) send(ctx context.Context, userID, name string, data msgtemplates.Data) {
	text, err := h.Templates.Render(name, data)
	if err != nil {
		h.Log.Error("render failed", zap.String("template", name), zap.Error(err))
		return
	}
	sctx, cancel := context.WithTimeout(ctx, timeouts.Send())
	defer cancel()
	if err := h.Messenger.SendDirectMessage(sctx, userID, text); err != nil {
		h.Log.Warn("reply send failed",
			zap.String("user_id", userID),
			zap.String("template", name),
			zap.Error(err))
	}
}

func person(p models.Participant) msgtemplates.Person {
	return msgtemplates.Person{
		Name:    p.FullName,
		Address: p.Address,
		Phone:   p.Phone,
		Notes:   deref(p.Notes),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
