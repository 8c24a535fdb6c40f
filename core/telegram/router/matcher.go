package router

import (
	"regexp"
	"strings"
)

// commandMatcher extracts the command token from message text. The text must be
// exactly "/name" or "/name@<username>"; matching is case-insensitive.
type commandMatcher struct {
	re *regexp.Regexp
}

func newCommandMatcher(username string) *commandMatcher {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	pattern := `(?i)^/(\w+)$`
	if username != "" {
		pattern = `(?i)^/(\w+)(?:@` + regexp.QuoteMeta(username) + `)?$`
	}
	return &commandMatcher{re: regexp.MustCompile(pattern)}
}

// Match returns the lower-cased command name found in text.
func (m *commandMatcher) Match(text string) (string, bool) {
	sub := m.re.FindStringSubmatch(text)
	if sub == nil {
		return "", false
	}
	return strings.ToLower(sub[1]), true
}
