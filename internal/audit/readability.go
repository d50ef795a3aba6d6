package audit

import (
	"math"
	"strings"
)

// Readability returns the Flesch-Kincaid grade level of text, floored at 0
// and rounded to one decimal.
func Readability(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	sentences := max(1, strings.Count(text, ".")+strings.Count(text, "!")+strings.Count(text, "?"))
	words := strings.Fields(text)
	wordCount := max(1, len(words))

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(strings.ToLower(w))
	}

	grade := 0.39*(float64(wordCount)/float64(sentences)) + 11.8*(float64(syllables)/float64(wordCount)) - 15.59
	return math.Round(math.Max(0, grade)*10) / 10
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiouy", b) >= 0
}

// countSyllables approximates syllables as vowel groups, minus a silent final e.
func countSyllables(word string) int {
	if word == "" {
		return 1
	}
	count := 0
	if isVowel(word[0]) {
		count++
	}
	for i := 1; i < len(word); i++ {
		if isVowel(word[i]) && !isVowel(word[i-1]) {
			count++
		}
	}
	if strings.HasSuffix(word, "e") {
		count--
	}
	if count <= 0 {
		count = 1
	}
	return count
}
