package matching_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/dalemusser/santahub/internal/app/system/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("p%02d", i)
	}
	return out
}

func TestMatch_TooFewParticipants(t *testing.T) {
	for _, in := range [][]string{nil, {"a"}, {"a", "a"}} {
		_, err := matching.Match(in, nil)
		assert.ErrorIs(t, err, matching.ErrTooFewParticipants, "input %v", in)
	}
}

func TestMatch_TwoParticipantsSwap(t *testing.T) {
	pairs, err := matching.Match([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []matching.Pair{{Giver: "a", Receiver: "b"}, {Giver: "b", Receiver: "a"}}, pairs)
}

func TestMatch_ValidForRandomInputs(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for n := 2; n <= 40; n++ {
		people := ids(n)
		var excl []matching.Pair
		// Exclude roughly a fifth of the possible pairs.
		for _, a := range people {
			for _, b := range people {
				if a != b && rnd.Intn(5) == 0 {
					excl = append(excl, matching.Pair{Giver: a, Receiver: b})
				}
			}
		}
		pairs, err := matching.Match(people, excl, matching.WithRand(rnd))
		if errors.Is(err, matching.ErrInfeasible) {
			continue
		}
		require.NoError(t, err, "n=%d", n)
		assert.True(t, matching.Valid(people, excl, pairs), "n=%d pairs=%v", n, pairs)
	}
}

func TestMatch_FourWithOneExclusion(t *testing.T) {
	people := []string{"A", "B", "C", "D"}
	excl := []matching.Pair{{Giver: "A", Receiver: "B"}}

	for run := 0; run < 50; run++ {
		pairs, err := matching.Match(people, excl)
		require.NoError(t, err)
		require.Len(t, pairs, 4)

		receivers := map[string]bool{}
		for _, p := range pairs {
			assert.NotEqual(t, p.Giver, p.Receiver)
			if p.Giver == "A" {
				assert.NotEqual(t, "B", p.Receiver)
			}
			receivers[p.Receiver] = true
		}
		assert.Len(t, receivers, 4)
		assert.True(t, matching.Valid(people, excl, pairs))
	}
}

func TestMatch_EveryoneExcludesEveryone(t *testing.T) {
	for n := 2; n <= 8; n++ {
		people := ids(n)
		var excl []matching.Pair
		for _, a := range people {
			for _, b := range people {
				if a != b {
					excl = append(excl, matching.Pair{Giver: a, Receiver: b})
				}
			}
		}
		_, err := matching.Match(people, excl)
		assert.ErrorIs(t, err, matching.ErrInfeasible, "n=%d", n)
	}
}

func TestMatch_InfeasibleWithoutStrandedParticipant(t *testing.T) {
	// a and b may only give to each other's partner c, forcing a collision.
	people := []string{"a", "b", "c"}
	excl := []matching.Pair{
		{Giver: "a", Receiver: "b"},
		{Giver: "b", Receiver: "a"},
	}
	_, err := matching.Match(people, excl, matching.WithMaxAttempts(5))
	assert.ErrorIs(t, err, matching.ErrInfeasible)
}

func TestMatch_SelfExclusionIsHarmless(t *testing.T) {
	people := []string{"a", "b", "c"}
	excl := []matching.Pair{{Giver: "a", Receiver: "a"}}
	pairs, err := matching.Match(people, excl)
	require.NoError(t, err)
	assert.True(t, matching.Valid(people, excl, pairs))
}

func TestMatch_ProducesDifferentPairings(t *testing.T) {
	people := ids(6)
	seen := map[string]bool{}
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 30; i++ {
		pairs, err := matching.Match(people, nil, matching.WithRand(rnd))
		require.NoError(t, err)
		seen[fmt.Sprint(pairs)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestValid_RejectsBrokenAssignments(t *testing.T) {
	people := []string{"a", "b", "c"}
	tests := []struct {
		name  string
		pairs []matching.Pair
	}{
		{"self pair", []matching.Pair{{Giver: "a", Receiver: "a"}, {Giver: "b", Receiver: "c"}, {Giver: "c", Receiver: "b"}}},
		{"receiver collision", []matching.Pair{{Giver: "a", Receiver: "b"}, {Giver: "b", Receiver: "c"}, {Giver: "c", Receiver: "b"}}},
		{"missing giver", []matching.Pair{{Giver: "a", Receiver: "b"}, {Giver: "b", Receiver: "a"}}},
		{"stranger", []matching.Pair{{Giver: "a", Receiver: "b"}, {Giver: "b", Receiver: "c"}, {Giver: "c", Receiver: "z"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, matching.Valid(people, nil, tt.pairs))
		})
	}
}
