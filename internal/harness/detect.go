package harness

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hallucinationHallmarks = []string{
	"no reliable", "no evidence", "cannot be verified", "fictional", "imaginary",
	"there is no information", "unknown", "not found", "made up", "invented",
}

// Capitalized words that legitimately show up in well-grounded notes.
var knownProperWords = map[string]bool{
	"photosynthesis": true, "world": true, "war": true,
	"oxygen": true, "carbon": true, "photosynthetic": true,
}

var properWordRe = regexp.MustCompile(`[A-Z][a-z]{5,}`)

// LooksHallucinated flags empty notes, notes admitting they have nothing
// reliable, and notes with two or more long capitalized words when at least
// one of them is outside the known list.
func LooksHallucinated(text string) bool {
	if text == "" {
		return true
	}
	low := strings.ToLower(text)
	for _, h := range hallucinationHallmarks {
		if strings.Contains(low, h) {
			return true
		}
	}

	words := properWordRe.FindAllString(text, -1)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if !knownProperWords[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

// Disagrees reports whether the generated answer and the solver's choice are
// both non-empty and differ after trimming and case folding.
func Disagrees(answer, chosen string) bool {
	a := strings.TrimSpace(answer)
	c := strings.TrimSpace(chosen)
	return a != "" && c != "" && !strings.EqualFold(a, c)
}

var contradictionWords = []string{"contradict", "but then", "however", "inconsistent"}

// StoryContradiction checks a solver's reasoning against the two story
// puzzles in the default topic set: the reasoning must mention one of the
// story's people. Any other reasoning is flagged only when it uses
// contradiction language.
func StoryContradiction(question, reason string) bool {
	q := strings.ToLower(question)
	r := strings.ToLower(reason)

	switch {
	case strings.Contains(q, "who has the book"):
		return !containsAny(r, "sarah", "mary", "john")
	case strings.Contains(q, "who is the oldest"):
		return !containsAny(r, "tom", "lily", "sam")
	}
	return containsAny(r, contradictionWords...)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var (
	numberRe = regexp.MustCompile(`-?\d+\.?\d*`)

	// "150 km in 2 hours"
	speedRe = regexp.MustCompile(`(\d+\.?\d*)\s*(?:km|kilometers)\s*(?:in|over)\s*(\d+\.?\d*)\s*hours?`)

	// "what is 17 * 42 + 11?"
	arithRe     = regexp.MustCompile(`what is\s*([0-9.\s+\-*/()]+)\?`)
	arithOnlyRe = regexp.MustCompile(`^[0-9.\s+\-*/()]+$`)

	// "v=12, r=3"
	ohmRe = regexp.MustCompile(`v\s*=\s*(\d+\.?\d*)\D+r\s*=\s*(\d+\.?\d*)`)

	// "210 km away ... at 60 km/h"
	travelRe = regexp.MustCompile(`(\d+\.?\d*)\s*km away.*?at\s*(\d+\.?\d*)\s*km/h`)
)

// NumericOutcome is the result of NumericCheck.
type NumericOutcome int

const (
	NumericNotApplicable NumericOutcome = iota
	NumericMatch
	NumericMismatch
)

// ExtractNumbers returns every decimal number in s.
func ExtractNumbers(s string) []float64 {
	var nums []float64
	for _, m := range numberRe.FindAllString(s, -1) {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			nums = append(nums, f)
		}
	}
	return nums
}

// NumericCheck recomputes the expected value for a few recognizable
// question shapes and looks for it among the numbers in solverText.
// Questions of any other shape are not applicable.
func NumericCheck(question, solverText string) (NumericOutcome, string) {
	q := strings.ToLower(question)

	if m := speedRe.FindStringSubmatch(q); m != nil {
		dist, hours := parseFloat(m[1]), parseFloat(m[2])
		if hours == 0 {
			return NumericMismatch, "time zero"
		}
		return matchRelative(dist/hours, solverText, "speed match")
	}

	if m := arithRe.FindStringSubmatch(q); m != nil && arithOnlyRe.MatchString(m[1]) {
		expected, err := EvalArithmetic(m[1])
		if err != nil {
			return NumericMismatch, fmt.Sprintf("eval error %v", err)
		}
		return matchRelative(expected, solverText, "arithmetic match")
	}

	if m := ohmRe.FindStringSubmatch(q); m != nil {
		v, r := parseFloat(m[1]), parseFloat(m[2])
		if r == 0 {
			return NumericMismatch, "resistance zero"
		}
		return matchRelative(v/r, solverText, "ohm match")
	}

	if m := travelRe.FindStringSubmatch(q); m != nil {
		dist, speed := parseFloat(m[1]), parseFloat(m[2])
		if speed == 0 {
			return NumericMismatch, "speed zero"
		}
		hours := dist / speed
		nums := ExtractNumbers(solverText)
		for _, n := range nums {
			if abs(n-hours) < 0.5 {
				return NumericMatch, "arrival time numeric match"
			}
		}
		return NumericMismatch, fmt.Sprintf("expected_hours~%g, solver_numbers=%v", hours, nums)
	}

	return NumericNotApplicable, "no numeric pattern"
}

// matchRelative looks for expected within 1% (absolute 0.01 below 1).
func matchRelative(expected float64, solverText, okDetail string) (NumericOutcome, string) {
	nums := ExtractNumbers(solverText)
	tolerance := 0.01 * max(1, abs(expected))
	for _, n := range nums {
		if abs(n-expected) < tolerance {
			return NumericMatch, okDetail
		}
	}
	return NumericMismatch, fmt.Sprintf("expected %g, solver_numbers=%v", expected, nums)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
