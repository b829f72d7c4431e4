// Package notify sends every giver their assignment once a matching run
// is ready, either on demand or when the event's scheduled time arrives.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/msgtemplates"
	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrDispatchRunning is returned when a dispatch is requested while another is in progress.
	ErrDispatchRunning = errors.New("notify: dispatch already running")
	// ErrNotMatched is returned when the current event has no assignments to announce.
	ErrNotMatched = errors.New("notify: no matching has been run for the current event")
)

// AssignmentStore is the persistence the dispatcher needs.
type AssignmentStore interface {
	ListPendingNotification(ctx context.Context, eventID string) ([]models.Assignment, error)
	MarkNotified(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
}

// ParticipantStore loads participants by id.
type ParticipantStore interface {
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Participant, error)
}

// EventStore is the event persistence the dispatcher needs.
type EventStore interface {
	Current(ctx context.Context) (models.Event, error)
	ClaimScheduled(ctx context.Context, now time.Time, lease time.Duration) (bool, error)
	ReleaseSchedule(ctx context.Context, done bool) error
	MarkNotified(ctx context.Context, at time.Time) error
}

// Sender delivers a direct message.
type Sender interface {
	SendDirectMessage(ctx context.Context, userID, text string) error
}

// Renderer renders a named message template.
type Renderer interface {
	Render(name string, data msgtemplates.Data) (string, error)
}

// Report tallies one dispatch.
type Report struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Dispatcher announces assignments to their givers.
type Dispatcher struct {
	Assignments  AssignmentStore
	Participants ParticipantStore
	Events       EventStore
	Messenger    Sender
	Templates    Renderer
	Log          *zap.Logger

	SendDelay    time.Duration
	AdminMention string

	Now func() time.Time

	mu sync.Mutex
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// Dispatch sends the assignment message to every giver of the current
// event that has not been notified yet. Each assignment is marked notified
// only after its send succeeds, so a second call picks up the failures and
// never repeats a delivered message.
func (d *Dispatcher) Dispatch(ctx context.Context) (Report, error) {
	if !d.mu.TryLock() {
		return Report{}, ErrDispatchRunning
	}
	defer d.mu.Unlock()

	var rep Report

	ev, err := d.Events.Current(ctx)
	if err != nil {
		return rep, err
	}
	if ev.Status == models.EventOpen {
		return rep, ErrNotMatched
	}

	list, err := d.Assignments.ListPendingNotification(ctx, models.CurrentEventID)
	if err != nil {
		return rep, err
	}

	people, err := d.Participants.ByIDs(ctx, participantIDs(list))
	if err != nil {
		return rep, err
	}

	for i, a := range list {
		giver, gok := people[a.GiverID]
		receiver, rok := people[a.ReceiverID]
		if !gok || !rok || giver.ChatUserID == "" {
			d.Log.Warn("assignment skipped: participant missing or unreachable",
				zap.String("assignment_id", a.ID.Hex()),
				zap.Bool("giver_found", gok),
				zap.Bool("receiver_found", rok))
			rep.Skipped++
			continue
		}

		if i > 0 {
			if err := pause(ctx, d.SendDelay); err != nil {
				return rep, err
			}
		}

		if err := d.send(ctx, ev, giver, receiver); err != nil {
			d.Log.Warn("assignment send failed",
				zap.String("assignment_id", a.ID.Hex()),
				zap.String("giver_id", giver.ID.Hex()),
				zap.Error(err))
			rep.Failed++
			continue
		}

		if _, err := d.Assignments.MarkNotified(ctx, a.ID, d.now()); err != nil {
			d.Log.Error("assignment sent but not recorded",
				zap.String("assignment_id", a.ID.Hex()), zap.Error(err))
		}
		rep.Sent++
	}

	if rep.Failed == 0 && rep.Skipped == 0 && ev.Status != models.EventNotified {
		if err := d.Events.MarkNotified(ctx, d.now()); err != nil {
			d.Log.Error("event not marked notified", zap.Error(err))
		}
	}

	d.Log.Info("assignment notifications finished",
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped))
	return rep, nil
}

func (d *Dispatcher) send(ctx context.Context, ev models.Event, giver, receiver models.Participant) error {
	text, err := d.Templates.Render(msgtemplates.Assignment, msgtemplates.Data{
		EventName: ev.Name,
		GiverName: giver.FullName,
		Receiver: msgtemplates.Person{
			Name:    receiver.FullName,
			Address: receiver.Address,
			Phone:   receiver.Phone,
			Notes:   deref(receiver.Notes),
		},
		Recipient:    msgtemplates.Person{Name: giver.FullName},
		AdminMention: d.AdminMention,
	})
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeouts.Send())
	defer cancel()
	return d.Messenger.SendDirectMessage(sendCtx, giver.ChatUserID, text)
}

func participantIDs(list []models.Assignment) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(list)*2)
	out := make([]primitive.ObjectID, 0, len(list)*2)
	for _, a := range list {
		for _, id := range []primitive.ObjectID{a.GiverID, a.ReceiverID} {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
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
