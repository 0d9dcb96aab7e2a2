package services

import (
	"testing"

	"cafe-server/models"

	"github.com/stretchr/testify/require"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
		ok      bool
	}{
		{name: "empty has no rating", ratings: nil, ok: false},
		{name: "simple mean", ratings: []int{4, 2}, want: 3.0, ok: true},
		{name: "rounded to one decimal", ratings: []int{5, 4, 4}, want: 4.3, ok: true},
		{name: "single review", ratings: []int{5}, want: 5.0, ok: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reviews := make([]models.Review, 0, len(tc.ratings))
			for _, r := range tc.ratings {
				reviews = append(reviews, models.Review{Rating: r})
			}
			avg, ok := AverageRating(reviews)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.InDelta(t, tc.want, avg, 1e-9)
			}
		})
	}
}

func TestExtractMenuKeywords(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  []string
	}{
		{
			name: "descending count, absent terms excluded",
			texts: []string{
				"I loved the matcha and the tiramisu",
				"matcha again please",
			},
			want: []string{"matcha", "tiramisu"},
		},
		{
			name:  "substring containment, not word boundaries",
			texts: []string{"matchawesome"},
			want:  []string{"matcha"},
		},
		{
			name:  "case insensitive",
			texts: []string{"Best TIRAMISU in town"},
			want:  []string{"tiramisu"},
		},
		{
			name:  "ties keep vocabulary order",
			texts: []string{"tiramisu and matcha and sandwich"},
			want:  []string{"matcha", "sandwich", "tiramisu"},
		},
		{
			name:  "empty texts ignored",
			texts: []string{"", "nothing on the menu here"},
			want:  []string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractMenuKeywords(tc.texts))
		})
	}
}

func TestVisibleReviews(t *testing.T) {
	reviews := []models.Review{
		{UserID: "me", Comment: "mine"},
		{UserID: "friend", Comment: "theirs"},
		{UserID: "stranger", Comment: "hidden"},
		{UserID: "friend2", Comment: "also theirs"},
	}

	visible := VisibleReviews(reviews, "me", []string{"friend", "friend2"})

	require.Len(t, visible, 3)
	require.Equal(t, "mine", visible[0].Comment)
	require.Equal(t, "theirs", visible[1].Comment)
	require.Equal(t, "also theirs", visible[2].Comment)

	t.Run("no friends still shows own reviews", func(t *testing.T) {
		visible := VisibleReviews(reviews, "me", nil)
		require.Len(t, visible, 1)
		require.Equal(t, "mine", visible[0].Comment)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		require.Empty(t, VisibleReviews(nil, "me", []string{"friend"}))
	})
}
