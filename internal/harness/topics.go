package harness

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTopics exercises the failure modes the harness looks for:
// fictional subjects, ambiguity, arithmetic, story reasoning, controversy,
// long context, special characters and repeated runs of one topic.
var DefaultTopics = []string{
	"Zygoraxian fusion reactor operation principles",
	"Describe Nikola Tesla's secret communication with aliens",
	"Biology and life-cycle of dragons",
	"Apple",
	"Java",
	"Calculate speed if a car travels 150 km in 2 hours",
	"What is 17 * 42 + 11?",
	"Ohm's Law: V=12, R=3, find current",
	"John gave his book to Mary, Mary gave it to Sarah. Who has the book?",
	"Tom is older than Sam, Sam is older than Lily. Who is the oldest?",
	"Is Pluto a planet?",
	"Who invented calculus? Newton or Leibniz?",
	"Provide a detailed chronology of World War II and produce 3 MCQs",
	"Photosynthesis",
	"Jungkook's impact on K-pop ❤️",
	"A train leaves station A at 7 PM traveling at 60 km/h and reaches station B 210 km away. When does it arrive?",
	"Photosynthesis",
	"Photosynthesis",
	"Photosynthesis",
}

// TopicsFile is the YAML layout accepted by LoadTopics.
type TopicsFile struct {
	Topics []string `yaml:"topics"`
}

// LoadTopics reads a topic list from a YAML file. Blank entries are dropped.
func LoadTopics(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var f TopicsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse topics file %s: %w", path, err)
	}

	var topics []string
	for _, t := range f.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("topics file %s lists no topics", path)
	}
	return topics, nil
}
