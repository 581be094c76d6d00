package reply

import "regexp"

// CharLimit is the platform's reply character limit
const CharLimit = 280

var (
	mentionPrefixRegex = regexp.MustCompile(`^@\S+\s*`)
	questionURLRegex   = regexp.MustCompile(`question://([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)
)

// RemoveMentionPrefix strips a leading @mention token, if any
func RemoveMentionPrefix(text string) string {
	return mentionPrefixRegex.ReplaceAllString(text, "")
}

// TruncateReply caps text at CharLimit characters, replacing the tail with an
// ellipsis when it is over the limit. Counted in runes, not bytes.
func TruncateReply(text string) string {
	runes := []rune(text)
	if len(runes) <= CharLimit {
		return text
	}
	return string(runes[:CharLimit-3]) + "..."
}

// ConvertQuestionURLs rewrites question://<uuid> tokens to the analytics URL
// concatenated with the UUID, leaving all other text untouched
func ConvertQuestionURLs(text, analyticsURL string) string {
	return questionURLRegex.ReplaceAllStringFunc(text, func(match string) string {
		return analyticsURL + questionURLRegex.FindStringSubmatch(match)[1]
	})
}
