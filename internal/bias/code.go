package bias

import (
	"fmt"
	"strconv"
)

// ParseArticleCode extracts the numeric topic and article ids from a code
// such as "T01A": topic 1, article 101.
func ParseArticleCode(code string) (topicID, articleID int, err error) {
	if len(code) < 4 {
		return 0, 0, fmt.Errorf("article code %q too short", code)
	}
	topicID, err = strconv.Atoi(code[1:3])
	if err != nil {
		return 0, 0, fmt.Errorf("article code %q: bad topic digits: %w", code, err)
	}
	letter := code[3]
	if letter < 'A' || letter > 'Z' {
		return 0, 0, fmt.Errorf("article code %q: bad article letter %q", code, letter)
	}
	return topicID, topicID*100 + int(letter-'A'+1), nil
}

// TopicCode is the topic prefix of an article code ("T01A" -> "T01").
func TopicCode(code string) string {
	if len(code) < 3 {
		return ""
	}
	return code[:3]
}
