package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cafe-server/middleware"
	"cafe-server/services"
	"cafe-server/utils/errors"

	"github.com/gorilla/mux"
)

type CafeHandler struct {
	placesService *services.PlacesService
}

func NewCafeHandler(placesService *services.PlacesService) *CafeHandler {
	return &CafeHandler{placesService: placesService}
}

type nearbyCafesResponse struct {
	services.NearbyResult
	Count  int     `json:"count"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius int     `json:"radius"`
}

type cafeDetailsResponse struct {
	PlaceID          string   `json:"place_id"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	MenuKeywords     []string `json:"menu_keywords"`
}

// GetNearbyCafes proxies a café nearby search. A pagetoken continues the
// previous page for the same location.
func (h *CafeHandler) GetNearbyCafes(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	radius, _ := strconv.Atoi(r.URL.Query().Get("radius"))
	pageToken := r.URL.Query().Get("pagetoken")

	result, err := h.placesService.NearbySearch(r.Context(), lat, lng, radius, pageToken)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	response := nearbyCafesResponse{
		NearbyResult: result,
		Count:        len(result.Cafes),
		Lat:          lat,
		Lng:          lng,
		Radius:       radius,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetCafeDetails returns the café's external rating plus the menu keywords
// mined from its fetched review texts.
func (h *CafeHandler) GetCafeDetails(w http.ResponseWriter, r *http.Request) {
	placeID := mux.Vars(r)["placeID"]

	details, err := h.placesService.Details(r.Context(), placeID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	texts := make([]string, 0, len(details.Reviews))
	for _, rev := range details.Reviews {
		texts = append(texts, rev.Text)
	}

	response := cafeDetailsResponse{
		PlaceID:          placeID,
		Rating:           details.Rating,
		UserRatingsTotal: details.UserRatingsTotal,
		MenuKeywords:     services.ExtractMenuKeywords(texts),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
