package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// defaultCompletionToken is the literal recognised when no override is
// configured (spec.md §4.4).
const defaultCompletionToken = "<promise>COMPLETE</promise>"

var defaultCompletionPattern = mustTokenPattern(defaultCompletionToken)

// detectCompletion matches output against the default completion token.
func detectCompletion(output string) (found bool, metadata *port.CompletionMetadata) {
	return matchPattern(defaultCompletionPattern, output)
}

// detectCompletionWithToken matches output against a configured token,
// falling back to the default when token is empty. The token's own word
// (the text between <promise> and </promise>) is preserved; a JSON
// payload suffixed as "<word>:{...}" is still recognised and decoded.
func detectCompletionWithToken(output, token string) (found bool, metadata *port.CompletionMetadata) {
	if token == "" || token == defaultCompletionToken {
		return detectCompletion(output)
	}
	return matchPattern(mustTokenPattern(token), output)
}

func mustTokenPattern(token string) *regexp.Regexp {
	word := token
	word = strings.TrimPrefix(word, "<promise>")
	word = strings.TrimSuffix(word, "</promise>")
	return regexp.MustCompile(`<promise>` + regexp.QuoteMeta(word) + `(?::(\{.*\}))?</promise>`)
}

func matchPattern(pattern *regexp.Regexp, output string) (bool, *port.CompletionMetadata) {
	m := pattern.FindStringSubmatch(output)
	if m == nil {
		return false, nil
	}
	if m[1] == "" {
		return true, nil
	}

	var meta port.CompletionMetadata
	if err := json.Unmarshal([]byte(m[1]), &meta); err != nil {
		return true, nil
	}
	return true, &meta
}
