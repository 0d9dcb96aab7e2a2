package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cafe-server/middleware"
	"cafe-server/models"
	"cafe-server/services"
	"cafe-server/utils/errors"
)

type FriendHandler struct {
	friendService *services.FriendService
	profileStore  services.ProfileStore
}

func NewFriendHandler(friendService *services.FriendService, profileStore services.ProfileStore) *FriendHandler {
	return &FriendHandler{friendService: friendService, profileStore: profileStore}
}

// GetMe returns the session user's profile summary together with the
// categorized friend views the friends screen renders.
func (h *FriendHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	user, err := h.profileStore.GetProfile(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	overview, err := h.friendService.OverviewFor(r.Context(), user)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"profile": user.Summary(),
		"friends": overview,
	})
}

// WatchProfile streams the session user's profile document as server-sent
// events whenever it changes, backing the live refresh on the friends screen.
func (h *FriendHandler) WatchProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteError(w, errors.ErrInternal)
		return
	}

	ctx := r.Context()
	events := make(chan models.User, 4)
	err := h.profileStore.Watch(ctx, userID, func(u models.User) {
		pushLatest(events, u)
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
		case user := <-events:
			payload, err := json.Marshal(user)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// GetOverview returns the three categorized friend views for the session user.
func (h *FriendHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	overview, err := h.friendService.Overview(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(overview)
}

// SearchUsers looks up profiles by exact email match.
func (h *FriendHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	results, err := h.friendService.SearchByEmail(r.Context(), userID, r.URL.Query().Get("email"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": results, "count": len(results)})
}

func (h *FriendHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "target_id", h.friendService.SendRequest, "Friend request sent")
}

func (h *FriendHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "sender_id", h.friendService.AcceptRequest, "Friend request accepted")
}

func (h *FriendHandler) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "sender_id", h.friendService.DeclineRequest, "Friend request declined")
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "friend_id", h.friendService.RemoveFriend, "Friend removed")
}

// mutate handles the shared shape of the four relationship mutations: a JSON
// body with a single counterpart ID field.
func (h *FriendHandler) mutate(w http.ResponseWriter, r *http.Request, field string,
	op func(ctx context.Context, userID, otherID string) error, message string) {

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	otherID := body[field]
	if otherID == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	if err := op(r.Context(), userID, otherID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
