// Package timezones resolves IANA zone names and builds local wall-clock
// instants. The IANA database is embedded in the binary so resolution does
// not depend on the host's zoneinfo files.
package timezones

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

// ErrUnknownZone is returned for names the IANA database does not know.
var ErrUnknownZone = errors.New("timezones: unknown zone")

var (
	mu    sync.RWMutex
	cache = map[string]*time.Location{}
)

// Load returns the location for an IANA name. Results are cached.
// The empty name is not treated as UTC; it is unknown.
func Load(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownZone)
	}

	mu.RLock()
	loc, ok := cache[name]
	mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil || strings.EqualFold(name, "local") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}

	mu.Lock()
	cache[name] = loc
	mu.Unlock()
	return loc, nil
}

// Valid reports whether name is a known IANA zone.
func Valid(name string) bool {
	_, err := Load(name)
	return err == nil
}

// Resolve returns the location for name, falling back to fallback when
// name is empty or unknown. It fails only when neither resolves.
func Resolve(name, fallback string) (*time.Location, error) {
	if loc, err := Load(name); err == nil {
		return loc, nil
	}
	return Load(fallback)
}

// At returns the instant of the given local hour:00 on the calendar day
// that t falls on in loc.
func At(t time.Time, hour int, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
}

// NextAt returns the first local hour:00 in loc that is at or after t
// (strictly after t when strict is set).
func NextAt(t time.Time, hour int, loc *time.Location, strict bool) time.Time {
	cand := At(t, hour, loc)
	if cand.Before(t) || (strict && cand.Equal(t)) {
		local := t.In(loc)
		cand = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return cand
}

// OffsetSeconds returns the UTC offset of loc at t.
func OffsetSeconds(t time.Time, loc *time.Location) int {
	_, off := t.In(loc).Zone()
	return off
}
