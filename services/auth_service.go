package services

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"cafe-server/models"
	"cafe-server/utils/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	store     ProfileStore
	jwtSecret string
}

func NewAuthService(store ProfileStore, jwtSecret string) *AuthService {
	return &AuthService{store: store, jwtSecret: jwtSecret}
}

// Register creates a profile document with empty relationship lists and a
// randomly assigned avatar. Returns the new public ID.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	if name == "" || email == "" || password == "" {
		return "", errors.NewAPIError("MISSING_FIELDS", "Name, email and password are required", http.StatusBadRequest)
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", errors.NewAPIError("EMAIL_TAKEN", "An account with this email already exists", http.StatusConflict)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "HASH_ERROR", "Failed to hash password", http.StatusInternalServerError)
	}

	user := models.User{
		PublicID:       uuid.New().String(),
		Name:           name,
		Email:          email,
		PasswordHash:   string(passwordHash),
		ProfilePic:     models.ProfilePics[rand.Intn(len(models.ProfilePics))],
		Friends:        []string{},
		FriendRequests: []string{},
		SentRequests:   []string{},
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.CreateProfile(ctx, user); err != nil {
		return "", err
	}
	return user.PublicID, nil
}

// Login authenticates by email and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.ErrInvalidInput
	}

	users, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", errors.NewAPIError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.NewAPIError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID": user.PublicID,
		"name":   user.Name,
		"exp":    time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}
	return tokenString, nil
}
