package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"cafe-server/middleware"
	"cafe-server/models"
	"cafe-server/services"
	"cafe-server/utils/errors"

	"github.com/gorilla/mux"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	profileStore  services.ProfileStore
}

func NewReviewHandler(reviewService *services.ReviewService, profileStore services.ProfileStore) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, profileStore: profileStore}
}

type reviewListResponse struct {
	Reviews       []models.Review `json:"reviews"`
	Count         int             `json:"count"`
	AverageRating *float64        `json:"average_rating"`
}

// ListReviews returns a café's reviews, newest first. With ?scope=friends the
// list narrows to the requester's own reviews plus their friends'.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	cafeID := mux.Vars(r)["placeID"]

	var reviews []models.Review
	if r.URL.Query().Get("scope") == "friends" {
		requester, err := h.profileStore.GetProfile(r.Context(), userID)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		if reviews, err = h.reviewService.ListVisible(r.Context(), cafeID, requester); err != nil {
			middleware.WriteError(w, err)
			return
		}
	} else {
		var err error
		if reviews, err = h.reviewService.List(r.Context(), cafeID); err != nil {
			middleware.WriteError(w, err)
			return
		}
	}

	response := reviewListResponse{Reviews: reviews, Count: len(reviews)}
	if avg, ok := services.AverageRating(reviews); ok {
		response.AverageRating = &avg
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// WatchReviews streams newly submitted reviews for a café as server-sent
// events, so open café screens refresh without polling.
func (h *ReviewHandler) WatchReviews(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteError(w, errors.ErrInternal)
		return
	}
	cafeID := mux.Vars(r)["placeID"]

	ctx := r.Context()
	events := make(chan models.Review, 4)
	err := h.reviewService.Watch(ctx, cafeID, func(rev models.Review) {
		pushLatest(events, rev)
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case review := <-events:
			payload, err := json.Marshal(review)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	cafeID := mux.Vars(r)["placeID"]

	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	author, err := h.profileStore.GetProfile(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	review, err := h.reviewService.Add(r.Context(), cafeID, author, input.Rating, input.Comment)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(review)
}
