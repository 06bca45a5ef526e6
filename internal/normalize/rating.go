package normalize

import "strings"

// UnknownRating is the label for a missing or placeholder rating.
const UnknownRating = "unknown"

var ratingLabels = map[string]string{
	"g":     "g",
	"pg":    "pg",
	"pg-13": "pg13",
	"pg13":  "pg13",
	"r":     "r17",
	"r-17":  "r17",
	"r17":   "r17",
	"r-17+": "r17",
	"r17+":  "r17",
	"r+":    "r+",
	"rx":    "rx",
}

// Rating maps a catalog age rating ("PG-13 - Teens 13 or older") to a short
// label ("pg13"). Unrecognized codes are returned lower-cased without spaces.
func Rating(s string) string {
	code := strings.TrimSpace(s)
	if i := strings.Index(code, " - "); i >= 0 {
		code = code[:i]
	}
	code = strings.ToLower(strings.TrimSpace(code))

	switch code {
	case "", "none", "null", "n/a":
		return UnknownRating
	}
	if label, ok := ratingLabels[code]; ok {
		return label
	}
	return strings.Join(strings.Fields(code), "")
}
