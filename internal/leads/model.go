package leads

import (
	"strings"
	"time"
)

// Form field names accepted by the intake endpoint.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldIntent      = "intent"
	FieldMessage     = "message"
	FieldBudgetRange = "budget_range"
	FieldTimeline    = "timeline"
	FieldSourcePage  = "source_page"
	FieldConsent     = "consent"
	FieldHoneypot    = "company_website"
)

const (
	// DefaultSourcePage is used when the form does not say where it was posted from.
	DefaultSourcePage = "contact"

	// Placeholder renders absent optional values in the notification body.
	Placeholder = "—"

	// ConsentGiven is the only consent value that passes validation.
	ConsentGiven = "yes"
)

// fieldLimits are maximum lengths in characters, checked in this order.
var fieldLimits = []struct {
	field string
	max   int
}{
	{FieldName, 200},
	{FieldEmail, 200},
	{FieldPhone, 50},
	{FieldIntent, 80},
	{FieldSourcePage, 100},
	{FieldBudgetRange, 100},
	{FieldTimeline, 100},
	{FieldConsent, 10},
	{FieldMessage, 5000},
}

// Submission is one trimmed form post. It lives for a single request.
type Submission struct {
	Name        string
	Email       string
	Phone       string
	Intent      string
	Message     string
	BudgetRange string
	Timeline    string
	SourcePage  string
	Consent     string
	Honeypot    string
}

// Value returns the trimmed value of a form field by name.
func (s Submission) Value(field string) string {
	switch field {
	case FieldName:
		return s.Name
	case FieldEmail:
		return s.Email
	case FieldPhone:
		return s.Phone
	case FieldIntent:
		return s.Intent
	case FieldMessage:
		return s.Message
	case FieldBudgetRange:
		return s.BudgetRange
	case FieldTimeline:
		return s.Timeline
	case FieldSourcePage:
		return s.SourcePage
	case FieldConsent:
		return s.Consent
	case FieldHoneypot:
		return s.Honeypot
	default:
		return ""
	}
}

// SourcePageOrDefault returns the posted source page or DefaultSourcePage.
func (s Submission) SourcePageOrDefault() string {
	if s.SourcePage == "" {
		return DefaultSourcePage
	}
	return s.SourcePage
}

// Metadata is request information captured for the notification. Never validated.
type Metadata struct {
	IP        string
	UserAgent string
	Path      string
}

// Schema describes which fields a form variant requires.
type Schema struct {
	// Required is checked as one group; name and email are always present.
	Required []string
	// IntentRequired puts the inquiry type in the schema with its own error.
	IntentRequired bool
}

// NewSchema normalizes a required-field list. Unknown names are dropped and
// "intent" moves to IntentRequired so it keeps its dedicated message.
func NewSchema(required []string, intentRequired bool) Schema {
	schema := Schema{
		Required:       []string{FieldName, FieldEmail},
		IntentRequired: intentRequired,
	}
	seen := map[string]bool{FieldName: true, FieldEmail: true}
	for _, field := range required {
		field = strings.ToLower(strings.TrimSpace(field))
		if seen[field] {
			continue
		}
		switch field {
		case FieldIntent:
			schema.IntentRequired = true
		case FieldPhone, FieldMessage, FieldBudgetRange, FieldTimeline, FieldSourcePage:
			schema.Required = append(schema.Required, field)
		default:
			continue
		}
		seen[field] = true
	}
	return schema
}

// Settings is the per-deployment configuration the handler needs. It is
// passed in explicitly so tests can construct any variant.
type Settings struct {
	ToEmail   string
	FromEmail string
	FromName  string

	// Provider labels metrics and logs (mailchannels, sendgrid, ses, stub).
	Provider string
	// Credential is the provider secret; CredentialEnv names where it comes from.
	Credential    string
	CredentialEnv string
	// AllowUnauthenticated accepts a missing Credential (deprecated legacy mode).
	AllowUnauthenticated bool
	// EmailTimeout bounds the synchronous send. Zero leaves it to the sender.
	EmailTimeout time.Duration

	Schema      Schema
	SiteLabel   string
	PlainText   bool
	StripMarkup bool
}
