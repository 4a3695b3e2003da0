package leads

import (
	"fmt"
	"strings"
)

// orPlaceholder renders empty values as Placeholder.
func orPlaceholder(v string) string {
	if v == "" {
		return Placeholder
	}
	return v
}

// composeSubject builds the notification subject line.
func composeSubject(sub Submission, schema Schema) string {
	if schema.IntentRequired {
		return fmt.Sprintf("New Inquiry (%s): %s", sub.Intent, sub.Name)
	}
	return fmt.Sprintf("New Inquiry: %s", sub.Name)
}

// composeBody renders the plain-text notification. The layout is fixed so
// the same submission always produces the same body.
func composeBody(sub Submission, meta Metadata, siteLabel string) string {
	if siteLabel == "" {
		siteLabel = "website contact form"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New inquiry from %s\n\n", siteLabel)

	b.WriteString("IDENTITY\n")
	fmt.Fprintf(&b, "Name: %s\n", orPlaceholder(sub.Name))
	fmt.Fprintf(&b, "Email: %s\n", orPlaceholder(sub.Email))
	fmt.Fprintf(&b, "Phone: %s\n\n", orPlaceholder(sub.Phone))

	b.WriteString("INQUIRY\n")
	fmt.Fprintf(&b, "Type: %s\n", orPlaceholder(sub.Intent))
	fmt.Fprintf(&b, "Budget: %s\n", orPlaceholder(sub.BudgetRange))
	fmt.Fprintf(&b, "Timeline: %s\n\n", orPlaceholder(sub.Timeline))

	b.WriteString("NOTES\n")
	fmt.Fprintf(&b, "%s\n\n", orPlaceholder(sub.Message))

	b.WriteString("META\n")
	fmt.Fprintf(&b, "Source page: %s\n", sub.SourcePageOrDefault())
	fmt.Fprintf(&b, "Endpoint: %s\n", orPlaceholder(meta.Path))
	fmt.Fprintf(&b, "IP: %s\n", orPlaceholder(meta.IP))
	fmt.Fprintf(&b, "User-Agent: %s\n", orPlaceholder(meta.UserAgent))
	fmt.Fprintf(&b, "Consent: %s\n", orPlaceholder(sub.Consent))

	return b.String()
}

// crmPayload is the flat map posted to the CRM webhook.
func crmPayload(sub Submission, meta Metadata) map[string]string {
	return map[string]string{
		FieldName:        sub.Name,
		FieldEmail:       sub.Email,
		FieldPhone:       sub.Phone,
		FieldIntent:      sub.Intent,
		FieldMessage:     sub.Message,
		FieldBudgetRange: sub.BudgetRange,
		FieldTimeline:    sub.Timeline,
		FieldSourcePage:  sub.SourcePageOrDefault(),
		FieldConsent:     sub.Consent,
		"ip":             meta.IP,
		"user_agent":     meta.UserAgent,
	}
}
