package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/okutsen/snipkeep/internal/common"
)

// Values carries the placeholder substitutions for a copy. Empty fields
// leave their token untouched.
type Values struct {
	Name    string
	Company string
	Role    string
}

var (
	nameToken    = regexp.MustCompile(`(?i)\[NAME\]`)
	companyToken = regexp.MustCompile(`(?i)\[COMPANY\]`)
	roleToken    = regexp.MustCompile(`(?i)\[ROLE\]`)
)

// CopyWithSubstitution returns the snippet's message with every
// case-insensitive [NAME]/[COMPANY]/[ROLE] token replaced by the
// corresponding non-empty value. Unknown ids fail with ErrNotFound.
func (e *Engine) CopyWithSubstitution(id string, values Values) (string, error) {
	e.mu.Lock()
	idx := indexOf(e.snippets, id)
	if idx < 0 {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: snippet %s", common.ErrNotFound, id)
	}
	message := e.snippets[idx].Message
	e.mu.Unlock()

	return substitute(message, values), nil
}

func substitute(message string, values Values) string {
	if v := strings.TrimSpace(values.Name); v != "" {
		message = nameToken.ReplaceAllLiteralString(message, v)
	}
	if v := strings.TrimSpace(values.Company); v != "" {
		message = companyToken.ReplaceAllLiteralString(message, v)
	}
	if v := strings.TrimSpace(values.Role); v != "" {
		message = roleToken.ReplaceAllLiteralString(message, v)
	}
	return message
}
