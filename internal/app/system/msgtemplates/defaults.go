package msgtemplates

import "github.com/dalemusser/santahub/internal/app/system/onboarding"

var defaults = map[string]string{
	Invite: `Hi {{.Recipient.Name}}! :gift: We're organizing {{if .EventName}}*{{.EventName}}*{{else}}a gift exchange{{end}} and would love to have you join.
Would you like to take part? Just reply *yes* or *no*.`,

	Assignment: `Hi {{.GiverName}}! :santa: The draw is done. You are buying a gift for *{{.Receiver.Name}}*.
Ship it to:
> {{.Receiver.Address}}{{if .Receiver.Phone}}
> Phone: {{.Receiver.Phone}}{{end}}{{if .Receiver.Notes}}
Notes from {{.Receiver.Name}}: _{{.Receiver.Notes}}_{{end}}
{{if .AdminMention}}Questions? Ask {{.AdminMention}}.{{end}}`,

	ReminderFirst: `Hi {{.GiverName}}, friendly reminder: have you sent your gift to {{.Receiver.Name}} yet? Reply *yes* once it's on its way.`,

	ReminderRepeat: `Hi {{.GiverName}}, checking in again about your gift for {{.Receiver.Name}}. Reply *yes* when it's sent{{if .AdminMention}}, or ping {{.AdminMention}} if something is holding you up{{end}}.`,

	GiftSentAck: `Thanks {{.GiverName}}! :tada: I've let {{.Receiver.Name}} know a gift is on its way. No more reminders from me.`,

	ReceiverGiftSent: `Hi {{.Recipient.Name}}! :package: Your Secret Santa has sent your gift. Keep an eye on your mailbox!`,

	GiftEncourage: `No worries, {{.GiverName}}! There's still time. I'll check in again soon.`,

	string(onboarding.PromptConsentRetry): `Sorry, I didn't catch that. Would you like to join the gift exchange? Please reply *yes* or *no*.`,
	string(onboarding.PromptDeclined):     `No problem, thanks for letting us know! Maybe next time. :wave:`,
	string(onboarding.PromptAskName):      `Wonderful! :tada: First, what's your full name?`,
	string(onboarding.PromptRetryName):    `Please send your full name (between 2 and 100 characters).`,
	string(onboarding.PromptAskCountry):   `Thanks! Which country should your gift be shipped to?`,
	string(onboarding.PromptRetryCountry): `Please send the name of your country.`,
	string(onboarding.PromptAskCity):      `Which city?`,
	string(onboarding.PromptRetryCity):    `Please send the name of your city.`,
	string(onboarding.PromptAskZip):       `What's your postal code?`,
	string(onboarding.PromptRetryZip):     `That postal code looks too short. Please try again.`,
	string(onboarding.PromptAskStreet):    `And your street address (street, number, apartment)?`,
	string(onboarding.PromptRetryStreet):  `Please send your full street address.`,
	string(onboarding.PromptAskPhone):     `What phone number can the courier use?`,
	string(onboarding.PromptRetryPhone):   `That doesn't look like a phone number. Please include at least 7 digits.`,
	string(onboarding.PromptAskNotes):     `Anything your Secret Santa should know (allergies, wishes, sizes)? Reply *skip* if not.`,
	string(onboarding.PromptCompleted): `You're all set, {{.Recipient.Name}}! :white_check_mark:
We'll ship to:
> {{.Recipient.Address}}
You'll hear from me once the names are drawn.`,
}
