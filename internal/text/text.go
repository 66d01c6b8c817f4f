// Package text computes content features over raw issue text: fenced
// code blocks, URL-like tokens, images, word counts and readability
// scores. All functions treat their input as an opaque blob and never
// fail.
package text

import (
	"regexp"
	"strings"
)

var (
	codeFenceRe = regexp.MustCompile("(?s)```.+?```")
	urlRe       = regexp.MustCompile(`http[:/\w.]+`)
)

// CountCodeSnippets counts non-overlapping fenced code blocks.
func CountCodeSnippets(s string) int {
	return len(codeFenceRe.FindAllString(s, -1))
}

// StripCodeSnippets removes fenced code blocks, leaving the remaining
// text untouched.
func StripCodeSnippets(s string) string {
	return codeFenceRe.ReplaceAllString(s, "")
}

func isImage(token string) bool {
	// "jpg" also covers "jpeg".
	return strings.HasSuffix(token, "jpg") ||
		strings.HasSuffix(token, "jpeg") ||
		strings.HasSuffix(token, "png")
}

// CountURLs counts URL-like tokens, excluding images (those are
// counted by CountImages).
func CountURLs(s string) int {
	n := 0
	for _, tok := range urlRe.FindAllString(s, -1) {
		if !isImage(tok) {
			n++
		}
	}
	return n
}

// StripURLs removes every URL-like token, images included.
func StripURLs(s string) string {
	return urlRe.ReplaceAllString(s, "")
}

// CountImages counts URL-like tokens pointing at jpg/jpeg/png files.
func CountImages(s string) int {
	n := 0
	for _, tok := range urlRe.FindAllString(s, -1) {
		if isImage(tok) {
			n++
		}
	}
	return n
}

// CountWords returns the whitespace-delimited token count.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CleanBody strips code blocks first, then URLs from the remaining
// text. No whitespace normalization.
func CleanBody(s string) string {
	return StripURLs(StripCodeSnippets(s))
}
