package templates

import "strings"

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown makes s safe to interpolate into a Markdown (legacy mode)
// template.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
