// Package normalize cleans the free-text and categorical fields of a fetched
// anime record and derives the lower-cased / tokenized copies stored next to
// them. Every function here is pure.
package normalize

import (
	"strings"

	"animeharvest/pkg/models"
)

// Record applies every cleaning step in order and returns the normalized copy.
// The raw Title, Genre and Rating are kept; Synopsis is replaced by its
// cleaned form.
func Record(a models.Anime) models.Anime {
	a.CleanTitle = Title(a.Title)
	a.Synopsis = Synopsis(a.Synopsis)
	a.CleanSynopsis = ProcessSynopsis(a.Synopsis)
	a.CleanGenre = Genre(a.Genre)
	a.CleanRating = Rating(a.Rating)
	a.Language = Language(a.Synopsis)
	return a
}

// Records normalizes a batch, leaving the input slice untouched.
func Records(in []models.Anime) []models.Anime {
	out := make([]models.Anime, len(in))
	for i, a := range in {
		out[i] = Record(a)
	}
	return out
}

// Genre lower-cases the joined genre string.
func Genre(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
