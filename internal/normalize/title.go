package normalize

import (
	"html"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Typographic punctuation NFKC leaves alone.
var punctReplacer = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u2032", "'",
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`,
	"\u2010", "-", "\u2012", "-", "\u2013", "-", "\u2014", "-", "\u2015", "-",
	"\u00b7", " ", "\u30fb", " ",
)

// Title unescapes HTML entities, folds compatibility characters (full-width
// letters, ellipsis, no-break space), maps typographic quotes and dashes to
// ASCII, collapses whitespace and drops separators left standing alone at
// either end. Punctuation attached to a word ("-Kyoto Douran-", "Fate/")
// is part of the title and kept.
func Title(s string) string {
	s = html.UnescapeString(s)
	s = norm.NFKC.String(s)
	s = punctReplacer.Replace(s)

	words := strings.Fields(s)
	for len(words) > 0 && isSeparator(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	for len(words) > 0 && isSeparator(words[0]) {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func isSeparator(word string) bool {
	return strings.Trim(word, ":;,-/|") == ""
}
