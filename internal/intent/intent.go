// Package intent 把归一化后的文本映射到固定的命令类别。
//
// 规则表按顺序求值，第一个命中的类别胜出；短语按整词匹配，
// "*" 表示任意个（包括零个）词。
package intent

import (
	"strings"
	"unicode"
)

// Category 命令类别
type Category string

const (
	Greeting      Category = "greeting"
	Power         Category = "power"
	Time          Category = "time"
	SystemInfo    Category = "system_info"
	Volume        Category = "volume"
	AppLaunch     Category = "app_launch"
	NetworkStatus Category = "network_status"
	FileList      Category = "file_list"
	Weather       Category = "weather"
	Search        Category = "search"
	YouTube       Category = "youtube"
	AIQuestion    Category = "ai_question"
	Unknown       Category = "unknown"
)

// Rule 一条分类规则
type Rule struct {
	Category Category `json:"category"`
	Phrases  []string `json:"phrases"`
}

type compiledRule struct {
	category Category
	phrases  [][]string
}

// Matcher 有序规则匹配器，创建后只读，可并发使用
type Matcher struct {
	rules []compiledRule
}

// NewMatcher 按给定顺序编译规则
func NewMatcher(rules []Rule) *Matcher {
	m := &Matcher{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr := compiledRule{category: r.Category}
		for _, p := range r.Phrases {
			if words := compilePhrase(p); len(words) > 0 {
				cr.phrases = append(cr.phrases, words)
			}
		}
		m.rules = append(m.rules, cr)
	}
	return m
}

var defaultMatcher = NewMatcher(defaultRules)

// Classify 使用默认规则表分类
func Classify(text string) Category {
	return defaultMatcher.Classify(text)
}

// Match 使用默认规则表分类，同时返回命中的短语
func Match(text string) (Category, string) {
	return defaultMatcher.Match(text)
}

// Classify 返回第一个命中的类别，没有命中返回 Unknown
func (m *Matcher) Classify(text string) Category {
	c, _ := m.Match(text)
	return c
}

// Match 返回第一个命中的类别和短语
func (m *Matcher) Match(text string) (Category, string) {
	words := strings.Fields(Normalize(text))
	if len(words) == 0 {
		return Unknown, ""
	}
	for _, r := range m.rules {
		for _, p := range r.phrases {
			if containsPhrase(words, p) {
				return r.category, strings.Join(p, " ")
			}
		}
	}
	return Unknown, ""
}

// Normalize 小写化，去掉撇号，其余标点替换为空格，合并空白
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'' || r == '’' || r == '`':
			// "what's" -> "whats"
		case unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func compilePhrase(p string) []string {
	var words []string
	for _, f := range strings.Fields(p) {
		if f == "*" {
			words = append(words, "*")
			continue
		}
		words = append(words, strings.Fields(Normalize(f))...)
	}
	return words
}

func containsPhrase(words, phrase []string) bool {
	for i := range words {
		if matchFrom(words[i:], phrase) {
			return true
		}
	}
	return false
}

func matchFrom(words, phrase []string) bool {
	if len(phrase) == 0 {
		return true
	}
	if phrase[0] == "*" {
		for k := 0; k <= len(words); k++ {
			if matchFrom(words[k:], phrase[1:]) {
				return true
			}
		}
		return false
	}
	if len(words) == 0 || words[0] != phrase[0] {
		return false
	}
	return matchFrom(words[1:], phrase[1:])
}
