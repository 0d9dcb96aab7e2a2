package services

import (
	"context"
	"log"
	"net/http"
	"slices"

	"cafe-server/models"
	"cafe-server/utils/errors"
)

// FriendService manages the relationship lists on profile documents. Every
// mutation touches two documents (both participants) through a single
// ProfileStore.Apply call so the symmetric invariant survives partial failure
// wherever the store can transact.
type FriendService struct {
	store ProfileStore
}

func NewFriendService(store ProfileStore) *FriendService {
	return &FriendService{store: store}
}

// FriendOverview is the categorized view of one user's relationship lists,
// with profile summaries resolved for display.
type FriendOverview struct {
	Friends        []models.UserSummary `json:"friends"`
	FriendRequests []models.UserSummary `json:"friend_requests"`
	SentRequests   []models.UserSummary `json:"sent_requests"`
}

func (s *FriendService) Overview(ctx context.Context, userID string) (FriendOverview, error) {
	user, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return FriendOverview{}, err
	}
	return s.OverviewFor(ctx, user)
}

// OverviewFor categorizes an already-loaded profile, sparing callers that hold
// the document a second store read.
func (s *FriendService) OverviewFor(ctx context.Context, user models.User) (FriendOverview, error) {
	var err error
	overview := FriendOverview{}
	if overview.Friends, err = s.resolveSummaries(ctx, user.Friends); err != nil {
		return FriendOverview{}, err
	}
	if overview.FriendRequests, err = s.resolveSummaries(ctx, user.FriendRequests); err != nil {
		return FriendOverview{}, err
	}
	if overview.SentRequests, err = s.resolveSummaries(ctx, user.SentRequests); err != nil {
		return FriendOverview{}, err
	}
	return overview, nil
}

func (s *FriendService) resolveSummaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	users, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

// SearchByEmail returns profiles whose email exactly equals the query,
// excluding the requester. Zero matches is a valid empty result.
func (s *FriendService) SearchByEmail(ctx context.Context, userID, email string) ([]models.UserSummary, error) {
	if email == "" {
		return nil, errors.ErrInvalidInput
	}
	users, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	results := []models.UserSummary{}
	for _, u := range users {
		if u.PublicID == userID {
			continue
		}
		results = append(results, u.Summary())
	}
	return results, nil
}

// SendRequest records a pending request on both sides: the requester lands in
// the target's friend_requests and the target in the requester's sent_requests.
func (s *FriendService) SendRequest(ctx context.Context, userID, targetID string) error {
	if targetID == "" || userID == targetID {
		return errors.NewAPIError("INVALID_TARGET", "Cannot send a friend request to yourself", http.StatusBadRequest)
	}

	user, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	target, err := s.store.GetProfile(ctx, targetID)
	if err != nil {
		return err
	}

	switch {
	case slices.Contains(user.Friends, targetID):
		return errors.NewAPIError("ALREADY_FRIENDS", "You are already friends", http.StatusConflict)
	case slices.Contains(user.SentRequests, targetID):
		return errors.NewAPIError("REQUEST_PENDING", "Friend request already pending", http.StatusConflict)
	case slices.Contains(user.FriendRequests, targetID):
		// The other side already asked first; accepting is the right move.
		return errors.NewAPIError("REQUEST_INCOMING", "This user has already sent you a request", http.StatusConflict)
	}

	err = s.store.Apply(ctx,
		AddOp(targetID, FieldFriendRequests, userID),
		AddOp(userID, FieldSentRequests, targetID),
	)
	if err != nil {
		return err
	}
	log.Printf("Friend request sent from %s to %s", user.Email, target.Email)
	return nil
}

// AcceptRequest moves a pending request into a confirmed friendship: four list
// mutations across the two profile documents.
func (s *FriendService) AcceptRequest(ctx context.Context, userID, senderID string) error {
	if senderID == "" || userID == senderID {
		return errors.ErrInvalidInput
	}

	user, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !slices.Contains(user.FriendRequests, senderID) {
		return errors.NewAPIError("NO_PENDING_REQUEST", "No pending friend request from this user", http.StatusConflict)
	}
	if _, err := s.store.GetProfile(ctx, senderID); err != nil {
		return err
	}

	return s.store.Apply(ctx,
		RemoveOp(userID, FieldFriendRequests, senderID),
		AddOp(userID, FieldFriends, senderID),
		RemoveOp(senderID, FieldSentRequests, userID),
		AddOp(senderID, FieldFriends, userID),
	)
}

// DeclineRequest drops the pending request from both sides. The original
// client only cleared the recipient's friend_requests entry and left the
// sender's sent_requests dangling; both are cleared here.
func (s *FriendService) DeclineRequest(ctx context.Context, userID, senderID string) error {
	if senderID == "" || userID == senderID {
		return errors.ErrInvalidInput
	}

	user, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !slices.Contains(user.FriendRequests, senderID) {
		return errors.NewAPIError("NO_PENDING_REQUEST", "No pending friend request from this user", http.StatusConflict)
	}

	return s.store.Apply(ctx,
		RemoveOp(userID, FieldFriendRequests, senderID),
		RemoveOp(senderID, FieldSentRequests, userID),
	)
}

// RemoveFriend severs a confirmed friendship on both documents.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if friendID == "" || userID == friendID {
		return errors.ErrInvalidInput
	}

	user, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !slices.Contains(user.Friends, friendID) {
		return errors.NewAPIError("NOT_FRIENDS", "This user is not in your friends list", http.StatusConflict)
	}

	return s.store.Apply(ctx,
		RemoveOp(userID, FieldFriends, friendID),
		RemoveOp(friendID, FieldFriends, userID),
	)
}
