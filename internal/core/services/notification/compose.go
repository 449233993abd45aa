package notification

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

var textPolicy = bluemonday.StrictPolicy()

// sanitize strips markup and escapes what is left for an HTML body
func sanitize(s string) string {
	return textPolicy.Sanitize(s)
}

// plain strips markup for a header such as the subject line
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// Subject returns the email subject for a visit
func Subject(kind Kind, practiceName string) string {
	name := plain(practiceName)
	switch kind {
	case KindUpdate:
		return "[UPDATE] Visit Updated - " + name
	case KindSubmit:
		return "Visit Submitted - " + name
	default:
		return "New Visit Recorded - " + name
	}
}

func header(kind Kind) string {
	switch kind {
	case KindUpdate:
		return "Visit Updated"
	case KindSubmit:
		return "Visit Submitted"
	default:
		return "New Visit Recorded"
	}
}

// Compose renders the notification email for a queued visit
func Compose(p TaskPayload) Message {
	v := p.Visit

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>\n", header(p.Kind))
	row := func(label, value string) {
		fmt.Fprintf(&b, "<p><strong>%s:</strong> %s</p>\n", label, value)
	}

	row("Practice", sanitize(v.PracticeName))
	if v.DrName != "" {
		row("Doctor", sanitize(v.DrName))
	}
	if !v.VisitDate.IsZero() {
		row("Date", v.VisitDate.Format("January 2, 2006"))
	}
	row("Phone", sanitize(v.Phone))
	row("Email", sanitize(v.Email))
	row("Address", sanitize(v.Address))
	row("Samples Provided", sanitize(domain.FormatSamples(v.SamplesProvided)))
	if v.OtherSample != "" {
		row("Other Sample", sanitize(v.OtherSample))
	}
	row("Topics Discussed", sanitize(v.TopicsDiscussed))

	card := "Not provided"
	if p.HasCreditCard {
		card = "Provided"
	}
	row("Credit Card", card)

	return Message{
		Subject: Subject(p.Kind, v.PracticeName),
		HTML:    b.String(),
	}
}
