// Package reminders decides when givers are nudged about their gift and
// sends the nudges.
//
// A reminder slot is always 10:00 in the giver's local time zone. The
// first slot is 10:00 local on the seventh calendar day after the giver was
// notified; later slots are the next local 10:00 after the
// previous send. A slot that is already in the past when it is computed is
// pushed to the next upcoming 10:00, so downtime never produces an early or
// burst send.
package reminders

import (
	"time"

	"github.com/dalemusser/santahub/internal/app/system/timezones"
)

const (
	// SlotHour is the local hour at which reminders fire.
	SlotHour = 10
	// FirstDelayDays is the number of days between notification and the first reminder.
	FirstDelayDays = 7
)

// FirstSlot computes the first reminder instant for an assignment notified
// at notifiedAt. A nil loc means no usable time zone: the slot is then the
// naive notifiedAt + 7 days, or now + 1 day if that has already passed.
func FirstSlot(notifiedAt, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		slot := notifiedAt.AddDate(0, 0, FirstDelayDays)
		if !slot.After(now) {
			return now.Add(24 * time.Hour).UTC()
		}
		return slot.UTC()
	}

	local := notifiedAt.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day()+FirstDelayDays, 0, 0, 0, 0, loc)
	slot := timezones.At(day, SlotHour, loc)
	if !slot.After(now) {
		return NextSlot(now, loc)
	}
	return slot.UTC()
}

// NextSlot returns the next local 10:00 strictly after now. A nil loc
// falls back to now + 1 day.
func NextSlot(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return now.Add(24 * time.Hour).UTC()
	}
	return timezones.NextAt(now, SlotHour, loc, true).UTC()
}

// Location resolves the giver's zone, falling back to defaultZone. It
// returns nil when neither name resolves.
func Location(zone, defaultZone string) *time.Location {
	loc, err := timezones.Resolve(zone, defaultZone)
	if err != nil {
		return nil
	}
	return loc
}
