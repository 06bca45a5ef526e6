package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Credits and placeholders the catalog appends to synopses.
	writtenByPattern = regexp.MustCompile(`(?i)\[\s*written by [^\]]*\]`)
	sourcePattern    = regexp.MustCompile(`(?i)\(\s*source\s*:[^)]*\)`)
	noSynopsisRegexp = regexp.MustCompile(`(?is)no synopsis (information )?has been added.*$`)

	// Cheap check so plain text skips the HTML parser.
	markupPattern = regexp.MustCompile(`<[a-zA-Z/!][^>]*>|&[a-zA-Z#][a-zA-Z0-9]*;`)
)

// Synopsis strips markup and catalog boilerplate from free text.
// "None"/"null" placeholders become the empty string.
func Synopsis(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
		return ""
	}

	if markupPattern.MatchString(s) {
		s = stripMarkup(s)
	}

	s = writtenByPattern.ReplaceAllString(s, " ")
	s = sourcePattern.ReplaceAllString(s, " ")
	s = noSynopsisRegexp.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return collapseSpaces(s)
}

func stripMarkup(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	// keep line breaks as word boundaries
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, div, li").AppendHtml(" ")
	doc.Find("script, style").Remove()
	return doc.Find("body").Text()
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ProcessSynopsis derives the tokenized form of a cleaned synopsis:
// accent-folded, lower-cased, letters only, English stop words and single
// letters removed, tokens joined by one space.
func ProcessSynopsis(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(accentStripper, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	tokens := strings.FieldsFunc(folded, func(r rune) bool { return !unicode.IsLetter(r) })
	out := tokens[:0]
	for _, tok := range tokens {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// minLanguageText is the shortest text worth running detection on.
const minLanguageText = 20

// Language returns the ISO 639-3 code of the text, or "" when the text is
// too short or detection is not reliable.
func Language(s string) string {
	if len(s) < minLanguageText {
		return ""
	}
	info := whatlanggo.Detect(s)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6393()
}
