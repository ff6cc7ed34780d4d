package fallback

import (
	"regexp"
	"slices"
	"strings"

	"github.com/mac-assistant/mac-assistant-go/internal/intent"
)

var searchPatterns = compileAll(
	`search google for (.+)`,
	`google search (.+)`,
	`search the web for (.+)`,
	`search for (.+)`,
	`look up (.+)`,
	`web search (.+)`,
	`find information about (.+)`,
	`what is (.+)`,
	`what are (.+)`,
	`who is (.+)`,
	`where is (.+)`,
	`how to (.+)`,
	`how do (.+)`,
	`why (.+)`,
	`tell me about (.+)`,
	`explain (.+)`,
	`define (.+)`,
	`google (.+)`,
)

var videoPatterns = compileAll(
	`(?:find|search|watch|play|show)(?: me)?(?: an?| the| some)? videos? (?:of|about|on|for) (.+)`,
	`search for (.+) on youtube`,
	`youtube (.+)`,
	`find.*video.*about (.+)`,
	`search.*video (.+)`,
	`video.*about (.+)`,
	`watch.*video (.+)`,
	`find (.+) videos?`,
	`(.+) video tutorial`,
)

var aiPatterns = compileAll(
	`ask (?:ai|chatgpt|chat gpt|gpt|the assistant)(?: about| to)? (.+)`,
	`(?:chatgpt|chat gpt) (.+)`,
)

var videoNoise = []string{"youtube", "video", "videos", "watch", "find", "search", "on", "me", "a", "an", "the", "some"}

var leadingFiller = []string{"a ", "an ", "the ", "some ", "me "}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func firstCapture(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if q := trimFiller(m[1]); q != "" {
				return q
			}
		}
	}
	return ""
}

func trimFiller(q string) string {
	q = strings.TrimSpace(q)
	for changed := true; changed; {
		changed = false
		for _, f := range leadingFiller {
			if rest, ok := strings.CutPrefix(q, f); ok {
				q, changed = strings.TrimSpace(rest), true
			}
		}
	}
	q = strings.TrimSuffix(q, " on youtube")
	return strings.TrimSpace(q)
}

// ExtractQuery 从命令文本中取出要检索的内容；匹配不到时返回整句（归一化后）
func ExtractQuery(category intent.Category, text string) string {
	norm := intent.Normalize(text)

	switch category {
	case intent.Search:
		if q := firstCapture(searchPatterns, norm); q != "" {
			return q
		}
	case intent.YouTube:
		if q := firstCapture(videoPatterns, norm); q != "" {
			return q
		}
		var words []string
		for _, w := range strings.Fields(norm) {
			if !slices.Contains(videoNoise, w) {
				words = append(words, w)
			}
		}
		if len(words) > 0 {
			return strings.Join(words, " ")
		}
	case intent.AIQuestion:
		if q := firstCapture(aiPatterns, norm); q != "" {
			return q
		}
	}
	return norm
}
