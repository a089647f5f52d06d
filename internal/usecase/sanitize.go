package usecase

import "strings"

var fenceReplacer = strings.NewReplacer("```html", "", "```", "")

// Sanitize repairs the stray "html" the model emits before tags and drops
// Markdown code fences. Nothing else is touched.
func Sanitize(raw string) string {
	return fenceReplacer.Replace(strings.ReplaceAll(raw, "html<", "<"))
}
