package text

import (
	"strings"
	"unicode"

	"github.com/recgfi/dataset/internal/models"
)

// Scorer computes the four readability scores the snapshot builder
// records. The zero value is ready to use.
type Scorer struct{}

// Score returns readability metrics for s. Text with no words or no
// sentences scores zero on every metric.
func (Scorer) Score(s string) models.Readability {
	words := strings.Fields(s)
	nWords := float64(len(words))
	if nWords == 0 {
		return models.Readability{}
	}

	nSentences := float64(countSentences(s))
	nChars := 0.0
	nSyllables := 0.0
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				nChars++
			}
		}
		nSyllables += float64(countSyllables(w))
	}

	// L and S are per-100-words averages used by Coleman-Liau.
	l := nChars / nWords * 100
	sPer100 := nSentences / nWords * 100

	return models.Readability{
		ColemanLiau:          0.0588*l - 0.296*sPer100 - 15.8,
		FleschReadingEase:    206.835 - 1.015*(nWords/nSentences) - 84.6*(nSyllables/nWords),
		FleschKincaidGrade:   0.39*(nWords/nSentences) + 11.8*(nSyllables/nWords) - 15.59,
		AutomatedReadability: 4.71*(nChars/nWords) + 0.5*(nWords/nSentences) - 21.43,
	}
}

// countSentences counts runs of terminal punctuation, with a floor of
// one so fragments without punctuation still form a sentence.
func countSentences(s string) int {
	n := 0
	inRun := false
	for _, r := range s {
		switch r {
		case '.', '!', '?':
			if !inRun {
				n++
				inRun = true
			}
		default:
			inRun = false
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// countSyllables estimates syllables as vowel groups, discounting a
// trailing silent 'e', with a floor of one per word.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	n := 0
	prevVowel := false
	for _, r := range word {
		v := isVowel(r)
		if v && !prevVowel {
			n++
		}
		prevVowel = v
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && n > 1 {
		n--
	}
	if n == 0 {
		n = 1
	}
	return n
}
