package analysis

import "strings"

const fence = "```"

// StripCodeFence removes a markdown code fence the model may wrap its JSON in
// despite being told not to. Unfenced text is only trimmed, so applying it
// twice gives the same result as applying it once.
//
//	"```json\n{...}\n```" -> "{...}"
//	"```\n{...}```"       -> "{...}"
//	"  {...}  "           -> "{...}"
func StripCodeFence(text string) string {
	clean := strings.TrimSpace(text)
	if !strings.HasPrefix(clean, fence) {
		return clean
	}

	clean = strings.TrimPrefix(clean, fence)
	clean = strings.TrimPrefix(clean, "json")
	clean = strings.TrimSuffix(clean, fence)
	return strings.TrimSpace(clean)
}
