package services

import (
	"math"
	"slices"
	"sort"
	"strings"

	"cafe-server/models"
)

// foodKeywords is the fixed menu vocabulary mined from review text.
var foodKeywords = []string{"matcha", "sandwich", "tiramisu"}

// VisibleReviews filters to reviews authored by the requester or one of their
// friends, preserving input order.
func VisibleReviews(reviews []models.Review, requesterID string, friendIDs []string) []models.Review {
	visible := []models.Review{}
	for _, r := range reviews {
		if r.UserID == requesterID || slices.Contains(friendIDs, r.UserID) {
			visible = append(visible, r)
		}
	}
	return visible
}

// AverageRating returns the mean rating rounded to one decimal place.
// ok is false for an empty slice, the "no rating yet" state.
func AverageRating(reviews []models.Review) (avg float64, ok bool) {
	if len(reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg = float64(sum) / float64(len(reviews))
	return math.Round(avg*10) / 10, true
}

// ExtractMenuKeywords counts, per review text, which vocabulary terms appear as
// a lowercased substring, and returns the terms seen at least once ordered by
// descending count. Ties keep vocabulary order.
func ExtractMenuKeywords(reviewTexts []string) []string {
	counts := map[string]int{}
	for _, text := range reviewTexts {
		if text == "" {
			continue
		}
		comment := strings.ToLower(text)
		for _, keyword := range foodKeywords {
			if strings.Contains(comment, keyword) {
				counts[keyword]++
			}
		}
	}

	keywords := []string{}
	for _, keyword := range foodKeywords {
		if counts[keyword] > 0 {
			keywords = append(keywords, keyword)
		}
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return counts[keywords[i]] > counts[keywords[j]]
	})
	return keywords
}
