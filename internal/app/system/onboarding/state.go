// Package onboarding is the conversation protocol that collects a
// contact's participant details over direct messages.
//
// The package is pure: Advance takes the current state, the fields
// collected so far and one inbound message, and returns the next state,
// the updated fields, the prompt to send back and an optional side effect.
// Persisting the session and carrying out the effect is up to the caller.
package onboarding

import "fmt"

// State is a step of the onboarding conversation.
type State string

const (
	StateInvited           State = "invited"
	StateAwaitingConsent   State = "awaiting_consent"
	StateDeclined          State = "declined"
	StateCollectingName    State = "collecting_name"
	StateCollectingCountry State = "collecting_country"
	StateCollectingCity    State = "collecting_city"
	StateCollectingZip     State = "collecting_zip"
	StateCollectingStreet  State = "collecting_street"
	StateCollectingPhone   State = "collecting_phone"
	StateCollectingNotes   State = "collecting_notes"
	StateCompleted         State = "completed"
)

// order ranks states along the happy path; Declined sits beside Completed.
var order = map[State]int{
	StateInvited:           0,
	StateAwaitingConsent:   1,
	StateCollectingName:    2,
	StateCollectingCountry: 3,
	StateCollectingCity:    4,
	StateCollectingZip:     5,
	StateCollectingStreet:  6,
	StateCollectingPhone:   7,
	StateCollectingNotes:   8,
	StateCompleted:         9,
	StateDeclined:          9,
}

// ParseState converts a stored state name. Unknown names are an error.
func ParseState(s string) (State, error) {
	st := State(s)
	if _, ok := order[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
	return st, nil
}

// States lists every state, happy path first.
func States() []State {
	return []State{
		StateInvited, StateAwaitingConsent,
		StateCollectingName, StateCollectingCountry, StateCollectingCity,
		StateCollectingZip, StateCollectingStreet, StateCollectingPhone,
		StateCollectingNotes, StateCompleted, StateDeclined,
	}
}

// Terminal reports whether no further messages are processed in s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateDeclined
}

// Active reports whether s is a known, non-terminal state.
func (s State) Active() bool {
	_, ok := order[s]
	return ok && !s.Terminal()
}

// Before reports whether s comes strictly earlier than other on the path.
func (s State) Before(other State) bool {
	return order[s] < order[other]
}

func (s State) String() string { return string(s) }

// Effect is a side effect the caller must carry out after a transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectMarkInProgress marks the contact in_progress.
	EffectMarkInProgress
	// EffectMarkDeclined marks the contact declined and stamps the response time.
	EffectMarkDeclined
	// EffectMaterialize creates a Participant from the collected fields,
	// marks the contact completed, stamps the response time and attaches
	// time zone details from the directory when available.
	EffectMaterialize
)

func (e Effect) String() string {
	switch e {
	case EffectMarkInProgress:
		return "mark_in_progress"
	case EffectMarkDeclined:
		return "mark_declined"
	case EffectMaterialize:
		return "materialize"
	default:
		return "none"
	}
}

// Prompt names the message sent back to the contact.
// Text for each prompt lives in the msgtemplates package.
type Prompt string

const (
	PromptNone         Prompt = ""
	PromptConsentRetry Prompt = "onboarding_consent_retry"
	PromptDeclined     Prompt = "onboarding_declined"
	PromptAskName      Prompt = "onboarding_ask_name"
	PromptRetryName    Prompt = "onboarding_retry_name"
	PromptAskCountry   Prompt = "onboarding_ask_country"
	PromptRetryCountry Prompt = "onboarding_retry_country"
	PromptAskCity      Prompt = "onboarding_ask_city"
	PromptRetryCity    Prompt = "onboarding_retry_city"
	PromptAskZip       Prompt = "onboarding_ask_zip"
	PromptRetryZip     Prompt = "onboarding_retry_zip"
	PromptAskStreet    Prompt = "onboarding_ask_street"
	PromptRetryStreet  Prompt = "onboarding_retry_street"
	PromptAskPhone     Prompt = "onboarding_ask_phone"
	PromptRetryPhone   Prompt = "onboarding_retry_phone"
	PromptAskNotes     Prompt = "onboarding_ask_notes"
	PromptCompleted    Prompt = "onboarding_completed"
)

// Prompts lists every prompt Advance can return.
var Prompts = []Prompt{
	PromptConsentRetry, PromptDeclined,
	PromptAskName, PromptRetryName,
	PromptAskCountry, PromptRetryCountry,
	PromptAskCity, PromptRetryCity,
	PromptAskZip, PromptRetryZip,
	PromptAskStreet, PromptRetryStreet,
	PromptAskPhone, PromptRetryPhone,
	PromptAskNotes, PromptCompleted,
}
