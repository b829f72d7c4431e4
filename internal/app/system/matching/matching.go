// Package matching computes gift exchange pairings.
//
// Match returns a random derangement of the participant set: every
// participant gives to exactly one other participant, nobody gives to
// themselves, and no giver→receiver pair from the exclusion set is used.
// The search is a randomized backtracking walk restarted up to MaxAttempts
// times before the constraint set is reported infeasible.
package matching

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"
)

// MaxAttempts is the number of full restarts (each with fresh shuffles)
// tried before Match gives up.
const MaxAttempts = 100

var (
	// ErrTooFewParticipants is returned when fewer than two participants are supplied.
	ErrTooFewParticipants = errors.New("matching: at least two participants are required")

	// ErrInfeasible is returned when no valid pairing was found within the
	// attempt budget. Callers should ask the organizer to loosen exclusions
	// rather than retry with the same input.
	ErrInfeasible = errors.New("matching: no valid pairing satisfies the exclusions")
)

// Pair is an ordered giver→receiver pair.
type Pair struct {
	Giver    string
	Receiver string
}

type options struct {
	rnd      *rand.Rand
	attempts int
}

// Option configures Match.
type Option func(*options)

// WithRand makes Match draw from r. Tests use it for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rnd = r }
}

// WithMaxAttempts overrides MaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// Match pairs every id in ids with a receiver. Duplicate ids are ignored.
// The returned pairs are ordered like ids.
func Match(ids []string, exclusions []Pair, opts ...Option) ([]Pair, error) {
	o := options{attempts: MaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(newSeed()))
	}

	givers := dedupe(ids)
	if len(givers) < 2 {
		return nil, ErrTooFewParticipants
	}

	excluded := make(map[Pair]struct{}, len(exclusions))
	for _, e := range exclusions {
		excluded[e] = struct{}{}
	}

	if stranded(givers, excluded) {
		return nil, ErrInfeasible
	}

	for attempt := 0; attempt < o.attempts; attempt++ {
		s := &search{
			rnd:      o.rnd,
			excluded: excluded,
			givers:   shuffled(o.rnd, givers),
			pool:     givers,
			used:     make(map[string]bool, len(givers)),
			assigned: make(map[string]string, len(givers)),
		}
		if s.assign(0) {
			out := make([]Pair, 0, len(givers))
			for _, g := range givers {
				out = append(out, Pair{Giver: g, Receiver: s.assigned[g]})
			}
			return out, nil
		}
	}
	return nil, ErrInfeasible
}

// Valid reports whether pairs is a complete, constraint-satisfying
// assignment over ids.
func Valid(ids []string, exclusions []Pair, pairs []Pair) bool {
	want := dedupe(ids)
	if len(pairs) != len(want) {
		return false
	}
	members := make(map[string]bool, len(want))
	for _, id := range want {
		members[id] = true
	}
	excluded := make(map[Pair]struct{}, len(exclusions))
	for _, e := range exclusions {
		excluded[e] = struct{}{}
	}
	givers := make(map[string]bool, len(pairs))
	receivers := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		if p.Giver == p.Receiver || !members[p.Giver] || !members[p.Receiver] {
			return false
		}
		if _, bad := excluded[p]; bad {
			return false
		}
		if givers[p.Giver] || receivers[p.Receiver] {
			return false
		}
		givers[p.Giver] = true
		receivers[p.Receiver] = true
	}
	return true
}

type search struct {
	rnd      *rand.Rand
	excluded map[Pair]struct{}
	givers   []string
	pool     []string
	used     map[string]bool
	assigned map[string]string
}

// assign places a receiver for givers[i:] and backtracks on dead ends.
func (s *search) assign(i int) bool {
	if i == len(s.givers) {
		return true
	}
	giver := s.givers[i]
	for _, receiver := range shuffled(s.rnd, s.pool) {
		if !s.allowed(giver, receiver) {
			continue
		}
		s.used[receiver] = true
		s.assigned[giver] = receiver
		if s.assign(i + 1) {
			return true
		}
		delete(s.assigned, giver)
		s.used[receiver] = false
	}
	return false
}

func (s *search) allowed(giver, receiver string) bool {
	if giver == receiver || s.used[receiver] {
		return false
	}
	_, bad := s.excluded[Pair{Giver: giver, Receiver: receiver}]
	return !bad
}

// stranded reports whether some participant has no possible receiver or
// no possible giver. Such inputs can never be satisfied, so the restarts
// are skipped.
func stranded(ids []string, excluded map[Pair]struct{}) bool {
	for _, a := range ids {
		canGive, canReceive := false, false
		for _, b := range ids {
			if a == b {
				continue
			}
			if _, bad := excluded[Pair{Giver: a, Receiver: b}]; !bad {
				canGive = true
			}
			if _, bad := excluded[Pair{Giver: b, Receiver: a}]; !bad {
				canReceive = true
			}
		}
		if !canGive || !canReceive {
			return true
		}
	}
	return false
}

func shuffled(r *rand.Rand, in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// newSeed reads a seed from crypto/rand, falling back to the global
// math/rand source if the system source is unavailable.
func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Int63()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
