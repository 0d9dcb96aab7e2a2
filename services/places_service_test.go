package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// testPlacesService points the client at a local stub and at a Redis address
// nothing listens on, so every details call goes through the HTTP path.
func testPlacesService(t *testing.T, handler http.HandlerFunc) *PlacesService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewPlacesService(redis.NewClient(&redis.Options{Addr: "localhost:1"}), "test-key")
	svc.baseURL = server.URL
	svc.httpClient = server.Client()
	return svc
}

func TestPlacesService_NearbySearch(t *testing.T) {
	ctx := context.Background()

	t.Run("parses results and forwards parameters", func(t *testing.T) {
		var gotQuery map[string]string
		svc := testPlacesService(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/maps/api/place/nearbysearch/json", r.URL.Path)
			gotQuery = map[string]string{
				"type":      r.URL.Query().Get("type"),
				"radius":    r.URL.Query().Get("radius"),
				"key":       r.URL.Query().Get("key"),
				"pagetoken": r.URL.Query().Get("pagetoken"),
			}
			json.NewEncoder(w).Encode(map[string]any{
				"status": "OK",
				"results": []map[string]any{
					{"place_id": "p1", "name": "Bean There", "vicinity": "12 Roast Rd",
						"geometry": map[string]any{"location": map[string]float64{"lat": 1.3, "lng": 103.8}}},
				},
				"next_page_token": "token-2",
			})
		})

		result, err := svc.NearbySearch(ctx, 1.3, 103.8, 1500, "token-1")
		require.NoError(t, err)
		require.Len(t, result.Cafes, 1)
		require.Equal(t, "p1", result.Cafes[0].PlaceID)
		require.Equal(t, "Bean There", result.Cafes[0].Name)
		require.InDelta(t, 1.3, result.Cafes[0].Geometry.Location.Lat, 1e-9)
		require.Equal(t, "token-2", result.NextPageToken)

		require.Equal(t, "cafe", gotQuery["type"])
		require.Equal(t, "1500", gotQuery["radius"])
		require.Equal(t, "test-key", gotQuery["key"])
		require.Equal(t, "token-1", gotQuery["pagetoken"])
	})

	t.Run("zero results is not an error", func(t *testing.T) {
		svc := testPlacesService(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS"})
		})

		result, err := svc.NearbySearch(ctx, 1.3, 103.8, 1500, "")
		require.NoError(t, err)
		require.Empty(t, result.Cafes)
		require.Empty(t, result.NextPageToken)
	})

	t.Run("non-OK status surfaces as an error", func(t *testing.T) {
		svc := testPlacesService(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"status": "OVER_QUERY_LIMIT"})
		})

		_, err := svc.NearbySearch(ctx, 1.3, 103.8, 1500, "")
		require.Error(t, err)
	})

	t.Run("out-of-range coordinates rejected locally", func(t *testing.T) {
		called := false
		svc := testPlacesService(t, func(w http.ResponseWriter, r *http.Request) { called = true })

		_, err := svc.NearbySearch(ctx, 91, 0, 1500, "")
		require.Error(t, err)
		require.False(t, called)
	})
}

func TestPlacesService_Details(t *testing.T) {
	ctx := context.Background()

	t.Run("parses reviews and rating fields", func(t *testing.T) {
		svc := testPlacesService(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/maps/api/place/details/json", r.URL.Path)
			require.Equal(t, "p1", r.URL.Query().Get("place_id"))
			require.Equal(t, "reviews,rating,user_ratings_total", r.URL.Query().Get("fields"))
			json.NewEncoder(w).Encode(map[string]any{
				"status": "OK",
				"result": map[string]any{
					"rating":             4.4,
					"user_ratings_total": 120,
					"reviews": []map[string]any{
						{"author_name": "Sam", "rating": 5, "text": "matcha heaven"},
					},
				},
			})
		})

		details, err := svc.Details(ctx, "p1")
		require.NoError(t, err)
		require.InDelta(t, 4.4, details.Rating, 1e-9)
		require.Equal(t, 120, details.UserRatingsTotal)
		require.Len(t, details.Reviews, 1)
		require.Equal(t, "matcha heaven", details.Reviews[0].Text)
	})

	t.Run("unknown place maps to not found", func(t *testing.T) {
		svc := testPlacesService(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"status": "NOT_FOUND"})
		})

		_, err := svc.Details(ctx, "missing")
		require.Error(t, err)
		require.Contains(t, err.Error(), "not found")
	})

	t.Run("empty place id rejected locally", func(t *testing.T) {
		called := false
		svc := testPlacesService(t, func(w http.ResponseWriter, r *http.Request) { called = true })

		_, err := svc.Details(ctx, "")
		require.Error(t, err)
		require.False(t, called)
	})
}
