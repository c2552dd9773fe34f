package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/fiberdesk/internal/document/domain"
)

var tsPadRe = regexp.MustCompile(`\{TS(\d+)\}`)

const (
	DefaultDocumentNumberTemplate = "{PREFIX}-{PROJECT}-{TS6}"

	// ProjectPlaceholder stands in for a missing project identifier.
	ProjectPlaceholder = "XXX"
)

// FormatDocumentNumber expands a document number template.
//
// Tokens: {PREFIX}, {PROJECT}, {YYYY}, {YY}, {MM}, {DD}, {TS} (Unix
// milliseconds) and {TSn} (the last n digits of it).
//
// This function is PURE:
// - No side effects
// - Fully deterministic
func FormatDocumentNumber(template, prefix, project string, issuedAt time.Time) (string, error) {
	if template == "" {
		return "", fmt.Errorf("document number template is empty")
	}

	millis := strconv.FormatInt(issuedAt.UnixMilli(), 10)

	out := template
	out = strings.ReplaceAll(out, "{PREFIX}", prefix)
	out = strings.ReplaceAll(out, "{PROJECT}", projectToken(project))

	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	out = strings.ReplaceAll(out, "{TS}", millis)
	out = tsPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := tsPadRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		if len(millis) >= width {
			return millis[len(millis)-width:]
		}
		return strings.Repeat("0", width-len(millis)) + millis
	})

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in document number format: %s", out)
	}

	return out, nil
}

// DocumentNumber returns the invoice's own number when it has one and
// synthesizes one from the default template otherwise.
func DocumentNumber(t domain.Type, invoice domain.Invoice, projectID string, now time.Time) string {
	if number := strings.TrimSpace(invoice.Number); number != "" {
		return number
	}
	number, err := FormatDocumentNumber(DefaultDocumentNumberTemplate, t.Prefix(), projectID, now)
	if err != nil {
		// the default template has no unresolved tokens
		return t.Prefix()
	}
	return number
}

// FileName is the download name of a rendered document.
func FileName(t domain.Type, number string) string {
	return fmt.Sprintf("%s_%s.pdf", t, fileSafe(number))
}

func projectToken(project string) string {
	token := strings.ToUpper(slug.Make(strings.TrimSpace(project)))
	if token == "" {
		return ProjectPlaceholder
	}
	return token
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
}
