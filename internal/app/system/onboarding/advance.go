package onboarding

import (
	"errors"
	"strings"

	"github.com/dalemusser/santahub/internal/app/system/normalize"
	"github.com/dalemusser/santahub/internal/domain/models"
)

var (
	// ErrTerminal is returned for messages that arrive after the
	// conversation has completed or been declined. Nothing is sent back.
	ErrTerminal = errors.New("onboarding: session is finished")

	// ErrUnknownState is returned for a stored state this package does not know.
	ErrUnknownState = errors.New("onboarding: unknown state")
)

// Step is the outcome of one inbound message.
type Step struct {
	State    State
	Fields   models.OnboardingFields
	Prompt   Prompt
	Effect   Effect
	Advanced bool // false when the reply was rejected and the state held
}

// field describes one data-collection state.
type field struct {
	next   State
	retry  Prompt
	ask    Prompt // prompt for the next state
	accept func(text string) (string, bool)
	store  func(f *models.OnboardingFields, v string)
}

var collecting = map[State]field{
	StateCollectingName: {
		next:  StateCollectingCountry,
		retry: PromptRetryName,
		ask:   PromptAskCountry,
		accept: func(t string) (string, bool) {
			v := normalize.Text(t)
			n := normalize.Length(v)
			return normalize.Title(v), n >= 2 && n <= 100
		},
		store: func(f *models.OnboardingFields, v string) { f.Name = &v },
	},
	StateCollectingCountry: {
		next:   StateCollectingCity,
		retry:  PromptRetryCountry,
		ask:    PromptAskCity,
		accept: titleAtLeast(2),
		store:  func(f *models.OnboardingFields, v string) { f.Country = &v },
	},
	StateCollectingCity: {
		next:   StateCollectingZip,
		retry:  PromptRetryCity,
		ask:    PromptAskZip,
		accept: titleAtLeast(2),
		store:  func(f *models.OnboardingFields, v string) { f.City = &v },
	},
	StateCollectingZip: {
		next:  StateCollectingStreet,
		retry: PromptRetryZip,
		ask:   PromptAskStreet,
		accept: func(t string) (string, bool) {
			v := normalize.Upper(t)
			return v, normalize.Length(v) >= 3
		},
		store: func(f *models.OnboardingFields, v string) { f.PostalCode = &v },
	},
	StateCollectingStreet: {
		next:  StateCollectingPhone,
		retry: PromptRetryStreet,
		ask:   PromptAskPhone,
		accept: func(t string) (string, bool) {
			v := strings.TrimSpace(t)
			return v, normalize.Length(v) >= 5
		},
		store: func(f *models.OnboardingFields, v string) { f.Street = &v },
	},
	StateCollectingPhone: {
		next:  StateCollectingNotes,
		retry: PromptRetryPhone,
		ask:   PromptAskNotes,
		accept: func(t string) (string, bool) {
			v := strings.TrimSpace(t)
			return v, normalize.DigitCount(v) >= 7
		},
		store: func(f *models.OnboardingFields, v string) { f.Phone = &v },
	},
}

func titleAtLeast(n int) func(string) (string, bool) {
	return func(t string) (string, bool) {
		v := normalize.Title(t)
		return v, normalize.Length(v) >= n
	}
}

// Advance applies one inbound message to a session.
//
// Rejected replies hold the state and leave fields untouched; accepted
// replies move exactly one state forward. Exactly one prompt is returned
// for every message in a non-terminal state.
func Advance(state State, fields models.OnboardingFields, text string) (Step, error) {
	switch state {
	case StateCompleted, StateDeclined:
		return Step{State: state, Fields: fields}, ErrTerminal

	case StateInvited, StateAwaitingConsent:
		switch Classify(text) {
		case ReplyYes:
			return Step{State: StateCollectingName, Fields: fields, Prompt: PromptAskName, Effect: EffectMarkInProgress, Advanced: true}, nil
		case ReplyNo:
			return Step{State: StateDeclined, Fields: fields, Prompt: PromptDeclined, Effect: EffectMarkDeclined, Advanced: true}, nil
		default:
			return Step{State: state, Fields: fields, Prompt: PromptConsentRetry}, nil
		}

	case StateCollectingNotes:
		if !IsSkip(text) {
			v := strings.TrimSpace(text)
			fields.Notes = &v
		}
		return Step{State: StateCompleted, Fields: fields, Prompt: PromptCompleted, Effect: EffectMaterialize, Advanced: true}, nil
	}

	f, ok := collecting[state]
	if !ok {
		return Step{State: state, Fields: fields}, ErrUnknownState
	}
	v, valid := f.accept(text)
	if !valid {
		return Step{State: state, Fields: fields, Prompt: f.retry}, nil
	}
	f.store(&fields, v)
	return Step{State: f.next, Fields: fields, Prompt: f.ask, Advanced: true}, nil
}

// Collected returns the names of the fields that have a value.
func Collected(f models.OnboardingFields) []string {
	var out []string
	add := func(name string, v *string) {
		if v != nil {
			out = append(out, name)
		}
	}
	add("name", f.Name)
	add("country", f.Country)
	add("city", f.City)
	add("postal_code", f.PostalCode)
	add("street", f.Street)
	add("phone", f.Phone)
	add("notes", f.Notes)
	return out
}
