package routing

import (
	"regexp"
	"strings"
)

// topicRule is one surface pattern for pulling a topic phrase out of a
// question. Rules run in order; the first capture wins.
type topicRule struct {
	name string
	re   *regexp.Regexp
}

var topicRules = []topicRule{
	{"question-prefix", regexp.MustCompile(`(?i)^(?:what is|what are|explain|tell me about|who is|who was|how does|how do|give me an example of|an example of)\s+(.+)$`)},
	{"topic-suffix", regexp.MustCompile(`(?i)^(.+?)\s+(?:example|examples|explanation|definition)$`)},
}

var ellipsisPrefix = regexp.MustCompile(`^(?:\.{2,}|…+)\s*`)

// CleanQuestion strips transcription artifacts from the raw question surface
// before any matching runs.
func CleanQuestion(question string) string {
	q := strings.TrimSpace(question)
	q = ellipsisPrefix.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}

// ExtractTopic applies the ordered rule list to a cleaned question and
// returns the topic phrase, or "" when no rule matches.
func ExtractTopic(question string) string {
	q := CleanQuestion(question)
	for _, rule := range topicRules {
		m := rule.re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		topic := strings.TrimSpace(m[1])
		topic = strings.TrimSuffix(topic, "?")
		topic = strings.TrimSpace(topic)
		if lower := strings.ToLower(topic); strings.HasPrefix(lower, "the ") {
			topic = strings.TrimSpace(topic[4:])
		}
		if topic != "" {
			return topic
		}
	}
	return ""
}

// normalizeTitle lowercases and folds hyphens and underscores to spaces so
// "self-attention" and "Self Attention" compare equal.
func normalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// TitlesMatch reports whether a topic phrase and a node title refer to the
// same concept. Containment is checked in both directions, then again with
// all whitespace removed to catch spacing variants like "gradientdescent".
func TitlesMatch(topic, title string) bool {
	t1 := normalizeTitle(topic)
	t2 := normalizeTitle(title)
	if t1 == "" || t2 == "" {
		return false
	}
	if strings.Contains(t1, t2) || strings.Contains(t2, t1) {
		return true
	}
	c1 := strings.ReplaceAll(t1, " ", "")
	c2 := strings.ReplaceAll(t2, " ", "")
	return strings.Contains(c1, c2) || strings.Contains(c2, c1)
}

// TitleCase uppercases the first letter of each word for suggested titles
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
