package telegram

import (
	"strings"

	"recipe-lens/api/internal/analyze"
	"recipe-lens/api/internal/util"
)

// maxMessage stays under Telegram's 4096 character limit.
const maxMessage = 3900

// FormatReply renders a pipeline result as one chat message.
func FormatReply(res analyze.Result) string {
	var b strings.Builder
	if len(res.Ingredients) > 0 {
		b.WriteString("🥕 Ingredients: ")
		b.WriteString(strings.Join(res.Ingredients, ", "))
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(res.Recipe))
	return util.Truncate(b.String(), maxMessage)
}
