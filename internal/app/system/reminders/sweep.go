package reminders

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

// ErrSweepRunning is returned when a sweep is requested while another is in progress.
var ErrSweepRunning = errors.New("reminders: sweep already running")

// AssignmentStore is the persistence the sweep needs.
type AssignmentStore interface {
	// ListAwaitingGift returns assignments of the event that are notified and not gift-sent.
	ListAwaitingGift(ctx context.Context, eventID string) ([]models.Assignment, error)
	// ScheduleReminder sets next_reminder_at if it is not set yet.
	ScheduleReminder(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	// RecordReminder stamps last_reminder_at and moves next_reminder_at from due
	// to next, only if next_reminder_at still equals due.
	RecordReminder(ctx context.Context, id primitive.ObjectID, due, sentAt, next time.Time) (bool, error)
}

// ParticipantStore loads participants by id.
type ParticipantStore interface {
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Participant, error)
}

// Sender delivers a direct message.
type Sender interface {
	SendDirectMessage(ctx context.Context, userID, text string) error
}

// Renderer renders a named message template.
type Renderer interface {
	Render(name string, data msgtemplates.Data) (string, error)
}

// Report tallies one sweep.
type Report struct {
	Scheduled int `json:"scheduled"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Sweeper sends due reminders for the current event.
type Sweeper struct {
	Assignments  AssignmentStore
	Participants ParticipantStore
	Messenger    Sender
	Templates    Renderer
	Log          *zap.Logger

	DefaultZone  string        // used when a giver has no usable zone
	SendDelay    time.Duration // pause between consecutive sends
	AdminMention string

	Now func() time.Time

	mu sync.Mutex
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Sweep runs one pass over the current event's assignments.
//
// An assignment seen for the first time only gets its first slot
// scheduled. A due assignment gets one reminder; its slot moves forward
// only when the send succeeds, so failures are retried on a later sweep.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	if !s.mu.TryLock() {
		return Report{}, ErrSweepRunning
	}
	defer s.mu.Unlock()

	var rep Report
	now := s.now()

	list, err := s.Assignments.ListAwaitingGift(ctx, models.CurrentEventID)
	if err != nil {
		return rep, err
	}
	if len(list) == 0 {
		return rep, nil
	}

	people, err := s.Participants.ByIDs(ctx, participantIDs(list))
	if err != nil {
		return rep, err
	}

	sends := 0
	for _, a := range list {
		giver, ok := people[a.GiverID]
		if !ok || giver.ChatUserID == "" {
			s.Log.Warn("reminder skipped: giver missing or unreachable",
				zap.String("assignment_id", a.ID.Hex()),
				zap.String("giver_id", a.GiverID.Hex()))
			rep.Skipped++
			continue
		}
		loc := s.location(giver)

		if a.NextReminderAt == nil {
			if a.NotifiedAt == nil {
				rep.Skipped++
				continue
			}
			slot := FirstSlot(*a.NotifiedAt, now, loc)
			if _, err := s.Assignments.ScheduleReminder(ctx, a.ID, slot); err != nil {
				s.Log.Error("failed to schedule first reminder",
					zap.String("assignment_id", a.ID.Hex()), zap.Error(err))
				rep.Failed++
				continue
			}
			rep.Scheduled++
			continue
		}

		due := *a.NextReminderAt
		if due.After(now) {
			rep.Skipped++
			continue
		}

		if sends > 0 {
			if err := pause(ctx, s.SendDelay); err != nil {
				return rep, err
			}
		}
		sends++

		if err := s.send(ctx, a, giver, people[a.ReceiverID]); err != nil {
			s.Log.Warn("reminder send failed",
				zap.String("assignment_id", a.ID.Hex()),
				zap.String("giver_id", a.GiverID.Hex()),
				zap.Error(err))
			rep.Failed++
			continue
		}

		sentAt := s.now()
		next := NextSlot(sentAt, loc)
		updated, err := s.Assignments.RecordReminder(ctx, a.ID, due, sentAt, next)
		if err != nil {
			s.Log.Error("reminder sent but not recorded",
				zap.String("assignment_id", a.ID.Hex()), zap.Error(err))
		} else if !updated {
			s.Log.Warn("reminder slot changed during send",
				zap.String("assignment_id", a.ID.Hex()))
		}
		rep.Sent++
	}

	s.Log.Info("reminder sweep finished",
		zap.Int("scheduled", rep.Scheduled),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped))
	return rep, nil
}

func (s *Sweeper) location(p models.Participant) *time.Location {
	loc := Location(p.Zone(), s.DefaultZone)
	if loc == nil {
		s.Log.Debug("no usable time zone, using naive UTC schedule",
			zap.String("participant_id", p.ID.Hex()),
			zap.String("time_zone", p.Zone()),
			zap.String("default_zone", s.DefaultZone))
	}
	return loc
}

func (s *Sweeper) send(ctx context.Context, a models.Assignment, giver, receiver models.Participant) error {
	name := msgtemplates.ReminderFirst
	if a.LastReminderAt != nil {
		name = msgtemplates.ReminderRepeat
	}
	text, err := s.Templates.Render(name, msgtemplates.Data{
		GiverName:    giver.FullName,
		Receiver:     msgtemplates.Person{Name: receiver.FullName},
		Recipient:    msgtemplates.Person{Name: giver.FullName},
		AdminMention: s.AdminMention,
	})
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeouts.Send())
	defer cancel()
	return s.Messenger.SendDirectMessage(sendCtx, giver.ChatUserID, text)
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
