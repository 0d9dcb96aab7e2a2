package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"cafe-server/models"
	"cafe-server/utils/errors"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPlacesBaseURL = "https://maps.googleapis.com"
	placeDetailsFields   = "reviews,rating,user_ratings_total"
	detailsCacheTTL      = 10 * time.Minute
)

// PlacesService proxies the Google Places API for the mobile client: nearby
// café search and place details. Details responses are cached in Redis so
// repeated café screens don't re-bill the API.
type PlacesService struct {
	httpClient  *http.Client
	redisClient *redis.Client
	apiKey      string
	baseURL     string
}

func NewPlacesService(redisClient *redis.Client, apiKey string) *PlacesService {
	return &PlacesService{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		redisClient: redisClient,
		apiKey:      apiKey,
		baseURL:     defaultPlacesBaseURL,
	}
}

// NearbyResult is one page of café results.
type NearbyResult struct {
	Cafes         []models.Cafe `json:"cafes"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type nearbyResponse struct {
	Status        string        `json:"status"`
	Results       []models.Cafe `json:"results"`
	NextPageToken string        `json:"next_page_token"`
	ErrorMessage  string        `json:"error_message"`
}

type detailsResponse struct {
	Status       string              `json:"status"`
	Result       models.PlaceDetails `json:"result"`
	ErrorMessage string              `json:"error_message"`
}

// NearbySearch fetches cafés around a point. pageToken continues a previous
// page and takes precedence over the other parameters on the Google side.
func (s *PlacesService) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters int, pageToken string) (NearbyResult, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return NearbyResult{}, errors.ErrInvalidInput
	}
	if radiusMeters <= 0 {
		radiusMeters = 1500
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	params.Set("type", "cafe")
	params.Set("key", s.apiKey)
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	}

	var resp nearbyResponse
	if err := s.get(ctx, "/maps/api/place/nearbysearch/json", params, &resp); err != nil {
		return NearbyResult{}, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		log.Printf("Places nearby search failed: %s %s", resp.Status, resp.ErrorMessage)
		return NearbyResult{}, errors.NewAPIError("PLACES_ERROR", "Failed to fetch nearby cafes", http.StatusBadGateway, resp.Status)
	}

	return NearbyResult{Cafes: resp.Results, NextPageToken: resp.NextPageToken}, nil
}

// Details fetches a café's Google reviews, rating and rating count.
func (s *PlacesService) Details(ctx context.Context, placeID string) (models.PlaceDetails, error) {
	if placeID == "" {
		return models.PlaceDetails{}, errors.ErrInvalidInput
	}

	cacheKey := "place:" + placeID
	cached, err := s.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		var details models.PlaceDetails
		if err := json.Unmarshal([]byte(cached), &details); err == nil {
			return details, nil
		}
		log.Printf("Failed to unmarshal cached place %s: %v", placeID, err)
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", placeDetailsFields)
	params.Set("key", s.apiKey)

	var resp detailsResponse
	if err := s.get(ctx, "/maps/api/place/details/json", params, &resp); err != nil {
		return models.PlaceDetails{}, err
	}
	switch resp.Status {
	case "OK":
	case "NOT_FOUND", "INVALID_REQUEST":
		return models.PlaceDetails{}, errors.ErrNotFound
	default:
		log.Printf("Places details failed for %s: %s %s", placeID, resp.Status, resp.ErrorMessage)
		return models.PlaceDetails{}, errors.NewAPIError("PLACES_ERROR", "Failed to fetch cafe details", http.StatusBadGateway, resp.Status)
	}

	if detailsJSON, err := json.Marshal(resp.Result); err == nil {
		s.redisClient.Set(ctx, cacheKey, detailsJSON, detailsCacheTTL)
	}
	return resp.Result, nil
}

// PhotoURL builds the client-facing URL for a place photo reference.
func (s *PlacesService) PhotoURL(photoReference string, maxWidth int) string {
	if photoReference == "" {
		return ""
	}
	if maxWidth <= 0 {
		maxWidth = 400
	}
	return fmt.Sprintf("%s/maps/api/place/photo?maxwidth=%d&photoreference=%s&key=%s",
		s.baseURL, maxWidth, url.QueryEscape(photoReference), url.QueryEscape(s.apiKey))
}

func (s *PlacesService) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "PLACES_ERROR", "Failed to build Places request", http.StatusInternalServerError)
	}
	res, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "PLACES_ERROR", "Places API unreachable", errors.ErrUnavailable.Status)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.NewAPIError("PLACES_ERROR", "Places API request failed", http.StatusBadGateway, res.Status)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, "PLACES_ERROR", "Failed to decode Places response", http.StatusBadGateway)
	}
	return nil
}
