package onboarding_test

import (
	"testing"

	"github.com/dalemusser/santahub/internal/app/system/onboarding"
	"github.com/dalemusser/santahub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestAdvance_HappyPath(t *testing.T) {
	replies := []struct {
		text   string
		state  onboarding.State
		prompt onboarding.Prompt
		effect onboarding.Effect
	}{
		{"Yes please!", onboarding.StateCollectingName, onboarding.PromptAskName, onboarding.EffectMarkInProgress},
		{"jane   DOE", onboarding.StateCollectingCountry, onboarding.PromptAskCountry, onboarding.EffectNone},
		{"united kingdom", onboarding.StateCollectingCity, onboarding.PromptAskCity, onboarding.EffectNone},
		{"london", onboarding.StateCollectingZip, onboarding.PromptAskZip, onboarding.EffectNone},
		{"sw1a 1aa", onboarding.StateCollectingStreet, onboarding.PromptAskStreet, onboarding.EffectNone},
		{"10 Downing St", onboarding.StateCollectingPhone, onboarding.PromptAskPhone, onboarding.EffectNone},
		{"+44 20 7946 0958", onboarding.StateCollectingNotes, onboarding.PromptAskNotes, onboarding.EffectNone},
		{"No nuts please", onboarding.StateCompleted, onboarding.PromptCompleted, onboarding.EffectMaterialize},
	}

	state := onboarding.StateAwaitingConsent
	var fields models.OnboardingFields
	var prev []string
	for _, r := range replies {
		step, err := onboarding.Advance(state, fields, r.text)
		require.NoError(t, err, r.text)
		assert.Equal(t, r.state, step.State, r.text)
		assert.Equal(t, r.prompt, step.Prompt, r.text)
		assert.Equal(t, r.effect, step.Effect, r.text)
		assert.True(t, step.Advanced, r.text)

		got := onboarding.Collected(step.Fields)
		assert.Subset(t, got, prev, "fields must only grow")
		prev = got
		state, fields = step.State, step.Fields
	}

	assert.Equal(t, "Jane Doe", *fields.Name)
	assert.Equal(t, "United Kingdom", *fields.Country)
	assert.Equal(t, "London", *fields.City)
	assert.Equal(t, "SW1A 1AA", *fields.PostalCode)
	assert.Equal(t, "10 Downing St", *fields.Street)
	assert.Equal(t, "+44 20 7946 0958", *fields.Phone)
	assert.Equal(t, "No nuts please", *fields.Notes)
}

func TestAdvance_Consent(t *testing.T) {
	tests := []struct {
		text   string
		state  onboarding.State
		prompt onboarding.Prompt
		effect onboarding.Effect
	}{
		{"yes", onboarding.StateCollectingName, onboarding.PromptAskName, onboarding.EffectMarkInProgress},
		{"Sure, count me in", onboarding.StateCollectingName, onboarding.PromptAskName, onboarding.EffectMarkInProgress},
		{"Sure, why not!", onboarding.StateCollectingName, onboarding.PromptAskName, onboarding.EffectMarkInProgress},
		{"Yes, I wouldn't miss it, never!", onboarding.StateCollectingName, onboarding.PromptAskName, onboarding.EffectMarkInProgress},
		{"Yes! Don't forget me", onboarding.StateCollectingName, onboarding.PromptAskName, onboarding.EffectMarkInProgress},
		{"no thanks", onboarding.StateDeclined, onboarding.PromptDeclined, onboarding.EffectMarkDeclined},
		{"Nope.", onboarding.StateDeclined, onboarding.PromptDeclined, onboarding.EffectMarkDeclined},
		{"what is this?", onboarding.StateAwaitingConsent, onboarding.PromptConsentRetry, onboarding.EffectNone},
		{"", onboarding.StateAwaitingConsent, onboarding.PromptConsentRetry, onboarding.EffectNone},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			step, err := onboarding.Advance(onboarding.StateAwaitingConsent, models.OnboardingFields{}, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.state, step.State)
			assert.Equal(t, tt.prompt, step.Prompt)
			assert.Equal(t, tt.effect, step.Effect)
		})
	}
}

func TestAdvance_InvitedActsLikeAwaitingConsent(t *testing.T) {
	step, err := onboarding.Advance(onboarding.StateInvited, models.OnboardingFields{}, "yep")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCollectingName, step.State)
}

func TestAdvance_ShortNameHoldsState(t *testing.T) {
	fields := models.OnboardingFields{}
	step, err := onboarding.Advance(onboarding.StateCollectingName, fields, "J")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCollectingName, step.State)
	assert.Equal(t, onboarding.PromptRetryName, step.Prompt)
	assert.False(t, step.Advanced)
	assert.Nil(t, step.Fields.Name)
}

func TestAdvance_NameTooLong(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	step, err := onboarding.Advance(onboarding.StateCollectingName, models.OnboardingFields{}, string(long))
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCollectingName, step.State)
}

func TestAdvance_Phone(t *testing.T) {
	base := models.OnboardingFields{Name: str("Jane Doe"), Street: str("10 Downing St")}

	step, err := onboarding.Advance(onboarding.StateCollectingPhone, base, "123-456")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCollectingPhone, step.State, "six digits must not advance")
	assert.Equal(t, onboarding.PromptRetryPhone, step.Prompt)
	assert.Nil(t, step.Fields.Phone)
	assert.Equal(t, "Jane Doe", *step.Fields.Name, "rejection keeps collected fields")

	step, err = onboarding.Advance(onboarding.StateCollectingPhone, base, "123-4567")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCollectingNotes, step.State)
	assert.Equal(t, "123-4567", *step.Fields.Phone)
}

func TestAdvance_ShortInputsHoldState(t *testing.T) {
	tests := []struct {
		state onboarding.State
		text  string
		retry onboarding.Prompt
	}{
		{onboarding.StateCollectingCountry, "U", onboarding.PromptRetryCountry},
		{onboarding.StateCollectingCity, " x ", onboarding.PromptRetryCity},
		{onboarding.StateCollectingZip, "12", onboarding.PromptRetryZip},
		{onboarding.StateCollectingStreet, "Main", onboarding.PromptRetryStreet},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			step, err := onboarding.Advance(tt.state, models.OnboardingFields{}, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.state, step.State)
			assert.Equal(t, tt.retry, step.Prompt)
			assert.Empty(t, onboarding.Collected(step.Fields))
		})
	}
}

func TestAdvance_NotesSkip(t *testing.T) {
	for _, text := range []string{"skip", "None", "N/A", "", "   "} {
		step, err := onboarding.Advance(onboarding.StateCollectingNotes, models.OnboardingFields{}, text)
		require.NoError(t, err)
		assert.Equal(t, onboarding.StateCompleted, step.State, text)
		assert.Equal(t, onboarding.EffectMaterialize, step.Effect, text)
		assert.Nil(t, step.Fields.Notes, text)
	}
}

func TestAdvance_TerminalStatesAreNoOps(t *testing.T) {
	for _, st := range []onboarding.State{onboarding.StateCompleted, onboarding.StateDeclined} {
		fields := models.OnboardingFields{Name: str("Jane")}
		step, err := onboarding.Advance(st, fields, "yes")
		assert.ErrorIs(t, err, onboarding.ErrTerminal)
		assert.Equal(t, st, step.State)
		assert.Equal(t, onboarding.PromptNone, step.Prompt)
		assert.Equal(t, onboarding.EffectNone, step.Effect)
		assert.Equal(t, fields, step.Fields)
	}
}

func TestAdvance_UnknownState(t *testing.T) {
	_, err := onboarding.Advance(onboarding.State("bogus"), models.OnboardingFields{}, "hi")
	assert.ErrorIs(t, err, onboarding.ErrUnknownState)
}

func TestParseState(t *testing.T) {
	st, err := onboarding.ParseState("collecting_zip")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCollectingZip, st)
	assert.True(t, st.Active())

	_, err = onboarding.ParseState("nope")
	assert.ErrorIs(t, err, onboarding.ErrUnknownState)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want onboarding.Reply
	}{
		{"yes", onboarding.ReplyYes},
		{"YES!!!", onboarding.ReplyYes},
		{"ok sounds good", onboarding.ReplyYes},
		{"I'm in", onboarding.ReplyYes},
		{"I’m in", onboarding.ReplyYes},
		{"sent it yesterday", onboarding.ReplyYes},
		{"no", onboarding.ReplyNo},
		{"not yet", onboarding.ReplyNo},
		{"not sent yet", onboarding.ReplyNo},
		{"I haven't", onboarding.ReplyNo},
		{"Yes sent, sorry it's not wrapped", onboarding.ReplyYes},
		{"Sure, why not!", onboarding.ReplyYes},
		{"Yes! Don't forget me", onboarding.ReplyYes},
		{"No worries, shipped it Monday", onboarding.ReplyYes},
		{"I haven't sent it", onboarding.ReplyNo},
		{"not sure yet", onboarding.ReplyNo},
		{"No, not done", onboarding.ReplyNo},
		{"I don't think so", onboarding.ReplyNo},
		{"never", onboarding.ReplyNo},
		{"maybe", onboarding.ReplyUnknown},
		{"yesterday", onboarding.ReplyUnknown},
		{"know what", onboarding.ReplyUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, onboarding.Classify(tt.text))
		})
	}
}
