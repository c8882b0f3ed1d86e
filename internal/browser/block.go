package browser

import "strings"

// BlockType describes the kind of interstitial the search engine served.
type BlockType string

const (
	BlockNone    BlockType = ""
	BlockCaptcha BlockType = "captcha"
	BlockTraffic BlockType = "unusual_traffic"
	BlockConsent BlockType = "consent"
)

// DetectBlock inspects captured page text for signs that the search engine
// served a challenge or consent wall instead of results.
func DetectBlock(text string) (bool, BlockType) {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "unusual traffic from your computer network") ||
		strings.Contains(lower, "our systems have detected unusual traffic") {
		return true, BlockTraffic
	}

	if strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "i'm not a robot") ||
		strings.Contains(lower, "captcha") {
		return true, BlockCaptcha
	}

	// A consent wall is short and has no result content around it.
	if len(text) < 3000 && strings.Contains(lower, "before you continue") &&
		(strings.Contains(lower, "accept all") || strings.Contains(lower, "reject all")) {
		return true, BlockConsent
	}

	return false, BlockNone
}
