package workflow

import (
	"regexp"
	"strings"

	"github.com/jupiterbrains/kyc-platform/internal/models"
)

var nameFields = []string{"fullName", "full_name", "name", "customer_name", "account_holder", "document_holder"}

var emailFields = []string{"email", "email_address", "contact_email"}

// The captured group is deliberately case-sensitive so trailing
// lowercase words ("and", "regarding") end the match.
var selfIntroPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:my name is) ([A-Z][a-z]+(?: [A-Z][a-z]+)+)`),
	regexp.MustCompile(`(?i:i am) ([A-Z][a-z]+(?: [A-Z][a-z]+)+)`),
	regexp.MustCompile(`(?i:this is) ([A-Z][a-z]+(?: [A-Z][a-z]+)+)`),
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// resolveCustomerName picks the customer name with a fixed precedence:
// document fields, then a subject suffix, then a self-introduction in
// the body, then a placeholder.
func resolveCustomerName(doc *models.DocumentAnalysisResult, subject, body string) string {
	if doc != nil {
		for _, field := range nameFields {
			if v, ok := doc.ExtractedData[field].(string); ok {
				v = strings.TrimSpace(v)
				if len(strings.Fields(v)) >= 2 {
					return v
				}
			}
		}
	}

	if idx := strings.LastIndex(subject, " - "); idx >= 0 {
		candidate := strings.TrimSpace(subject[idx+3:])
		if len(strings.Fields(candidate)) >= 2 && isAlphabetic(candidate) {
			return candidate
		}
	}

	for _, pattern := range selfIntroPatterns {
		if m := pattern.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}

	return "Unknown Customer"
}

// resolveCustomerEmail prefers the authenticated requester, then
// document fields, then the first address found in the body.
func resolveCustomerEmail(requester models.Requester, doc *models.DocumentAnalysisResult, body string) string {
	if requester != nil && requester.Email() != "" {
		return requester.Email()
	}

	if doc != nil {
		for _, field := range emailFields {
			if v, ok := doc.ExtractedData[field].(string); ok {
				v = strings.TrimSpace(v)
				if strings.Contains(v, "@") && strings.Contains(v, ".") {
					return v
				}
			}
		}
	}

	if m := emailPattern.FindString(body); m != "" {
		return m
	}

	return "customer@unknown.com"
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') {
			return false
		}
	}
	return s != ""
}
