package leads

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	// maxBodyBytes caps the request body before any field is read.
	maxBodyBytes = 1 << 20
	// maxMultipartMemory is the in-memory budget for multipart parsing.
	maxMultipartMemory = 1 << 20
)

const (
	contentTypeURLEncoded = "application/x-www-form-urlencoded"
	contentTypeMultipart  = "multipart/form-data"
)

// checkContentType accepts only HTML form encodings. Parameters such as
// charset or boundary are ignored.
func checkContentType(r *http.Request) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(ct, contentTypeURLEncoded) || strings.Contains(ct, contentTypeMultipart) {
		return nil
	}
	return ErrUnsupportedMediaType
}

// extractFields parses the body and returns every known field trimmed.
// Missing fields are empty strings. Query parameters are ignored.
func extractFields(w http.ResponseWriter, r *http.Request) (Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var err error
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), contentTypeMultipart) {
		err = r.ParseMultipartForm(maxMultipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return Submission{}, tooLarge("body")
		}
		return Submission{}, internal(fmt.Errorf("parse form: %w", err))
	}

	return submissionFromValues(r.PostForm), nil
}

func submissionFromValues(values url.Values) Submission {
	get := func(field string) string {
		return strings.TrimSpace(values.Get(field))
	}
	return Submission{
		Name:        get(FieldName),
		Email:       get(FieldEmail),
		Phone:       get(FieldPhone),
		Intent:      get(FieldIntent),
		Message:     get(FieldMessage),
		BudgetRange: get(FieldBudgetRange),
		Timeline:    get(FieldTimeline),
		SourcePage:  get(FieldSourcePage),
		Consent:     get(FieldConsent),
		Honeypot:    get(FieldHoneypot),
	}
}

// isBot reports whether the hidden honeypot field was filled in.
func isBot(sub Submission) bool {
	return sub.Honeypot != ""
}

// Validate runs the presence checks in fixed order and stops at the first
// failure: required set, inquiry type, consent.
func (s Schema) Validate(sub Submission) error {
	for _, field := range s.Required {
		if sub.Value(field) == "" {
			return ErrMissingFields
		}
	}
	if s.IntentRequired && sub.Intent == "" {
		return ErrMissingIntent
	}
	if sub.Consent != ConsentGiven {
		return ErrConsentRequired
	}
	return nil
}

// checkLengths enforces fieldLimits on every field, optional ones included.
// Lengths are counted in characters, not bytes.
func checkLengths(sub Submission) error {
	for _, limit := range fieldLimits {
		if utf8.RuneCountInString(sub.Value(limit.field)) > limit.max {
			return tooLarge(limit.field)
		}
	}
	return nil
}

// captureMetadata reads best-effort client details. cf-connecting-ip is set
// by the edge proxy and wins over x-forwarded-for, which is taken verbatim.
func captureMetadata(r *http.Request) Metadata {
	ip := strings.TrimSpace(r.Header.Get("Cf-Connecting-Ip"))
	if ip == "" {
		ip = strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	}
	return Metadata{
		IP:        ip,
		UserAgent: strings.TrimSpace(r.Header.Get("User-Agent")),
		Path:      r.URL.Path,
	}
}
