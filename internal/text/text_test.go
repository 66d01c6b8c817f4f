package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountCodeSnippets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"none", "plain text only", 0},
		{"single", "before ```code``` after", 1},
		{"multiline", "a\n```\nline one\nline two\n```\nb", 1},
		{"two blocks", "```a``` mid ```b```", 2},
		{"unbalanced", "```dangling fence", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountCodeSnippets(tt.in))
		})
	}
}

func TestStripCodeSnippets(t *testing.T) {
	// Surrounding text stays exactly as written, whitespace included.
	assert.Equal(t, "before  after", StripCodeSnippets("before ```x := 1``` after"))
	assert.Equal(t, "no fences", StripCodeSnippets("no fences"))
}

func TestURLAndImagePartition(t *testing.T) {
	body := "see http://x.com/a and http://x.com/b.png"
	assert.Equal(t, 1, CountURLs(body))
	assert.Equal(t, 1, CountImages(body))
}

func TestCountURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"plain", "nothing here", 0},
		{"one", "read https://example.com/docs first", 1},
		{"image excluded", "screenshot: https://example.com/a.jpeg", 0},
		{"mixed", "http://a.com http://b.com/x.jpg http://c.com", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountURLs(tt.in))
		})
	}
}

func TestCountImages(t *testing.T) {
	assert.Equal(t, 0, CountImages("no links"))
	assert.Equal(t, 3, CountImages("http://a/1.jpg http://a/2.jpeg http://a/3.png"))
	assert.Equal(t, 0, CountImages("http://a/readme.md"))
}

func TestStripURLs(t *testing.T) {
	assert.Equal(t, "see  and ", StripURLs("see http://x.com/a and http://x.com/b.png"))
}

func TestCleanBodyOrdering(t *testing.T) {
	// The URL inside the code fence disappears with the fence; only the
	// outer URL is stripped by the URL pass.
	body := "intro ```curl http://in.code/path``` outro http://plain.example"
	assert.Equal(t, "intro  outro ", CleanBody(body))
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords("   \n\t"))
	assert.Equal(t, 3, CountWords("three  little words"))
}

func TestScorerEmpty(t *testing.T) {
	got := Scorer{}.Score("")
	assert.Zero(t, got.ColemanLiau)
	assert.Zero(t, got.FleschReadingEase)
	assert.Zero(t, got.FleschKincaidGrade)
	assert.Zero(t, got.AutomatedReadability)
}

func TestScorerOrdering(t *testing.T) {
	simple := Scorer{}.Score("The cat sat on the mat. The dog ran.")
	dense := Scorer{}.Score("Consequently, heterogeneous repositories demonstrate considerable variability regarding maintainability characteristics.")

	// Easier text reads easier and grades lower.
	assert.Greater(t, simple.FleschReadingEase, dense.FleschReadingEase)
	assert.Less(t, simple.FleschKincaidGrade, dense.FleschKincaidGrade)
	assert.Less(t, simple.AutomatedReadability, dense.AutomatedReadability)
}
