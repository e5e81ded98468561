package summary

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce   sync.Once
	answerPolicy *bluemonday.Policy
	labelPolicy  *bluemonday.Policy
)

// sanitizeAnswer strips every tag from free text typed by the user. The
// result is HTML-escaped and safe to emit unescaped.
func sanitizeAnswer(raw string) string {
	policies()
	return strings.TrimSpace(answerPolicy.Sanitize(raw))
}

// sanitizeLabel keeps the light inline markup screen authors use in labels
// (emphasis, consent links) and drops the rest.
func sanitizeLabel(raw string) string {
	policies()
	return strings.TrimSpace(labelPolicy.Sanitize(raw))
}

func policies() {
	policyOnce.Do(func() {
		answerPolicy = bluemonday.StrictPolicy()

		label := bluemonday.StrictPolicy()
		label.AllowElements("strong", "em", "b", "i", "br", "small")
		label.AllowStandardURLs()
		label.AllowAttrs("href").OnElements("a")
		label.RequireNoFollowOnLinks(true)
		label.AddTargetBlankToFullyQualifiedLinks(true)
		labelPolicy = label
	})
}
