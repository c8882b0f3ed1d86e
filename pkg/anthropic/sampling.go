package anthropic

import "strings"

// Model families that reject requests setting both temperature and top_p.
var exclusiveSamplingPrefixes = []string{
	"claude-opus-4-1",
	"claude-opus-4-5",
	"claude-sonnet-4-5",
	"claude-haiku-4-5",
}

// ExclusiveSampling reports whether model accepts only one of temperature
// and top_p per request.
func ExclusiveSampling(model string) bool {
	for _, p := range exclusiveSamplingPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
