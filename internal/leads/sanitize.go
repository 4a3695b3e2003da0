package leads

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy     *bluemonday.Policy
	strictPolicyOnce sync.Once
)

// stripMarkup removes HTML from a free-text value. The policy escapes
// entities, so they are decoded again for the plain-text body.
func stripMarkup(s string) string {
	if s == "" || !strings.ContainsAny(s, "<>&") {
		return s
	}
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// stripSubmissionMarkup cleans the free-text fields a human reads in the email.
func stripSubmissionMarkup(sub Submission) Submission {
	sub.Message = stripMarkup(sub.Message)
	sub.BudgetRange = stripMarkup(sub.BudgetRange)
	sub.Timeline = stripMarkup(sub.Timeline)
	sub.Intent = stripMarkup(sub.Intent)
	return sub
}
