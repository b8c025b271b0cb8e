package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ms-events/internal/logger"
	"ms-events/internal/models"
)

const minPasswordLength = 6

type DBLayer interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

type UserService struct {
	DB     DBLayer
	Tokens TokenIssuer
	Logger *logger.Logger
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func NewUserService(db DBLayer, tokens TokenIssuer, log *logger.Logger) *UserService {
	return &UserService{DB: db, Tokens: tokens, Logger: log}
}

// Register creates an account and signs the user in.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return nil, models.NewValidationError("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, models.NewValidationError("email", "must be a valid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, models.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.Logger.Info("AUTH", fmt.Sprintf("User %s registered", user.ID))
	return s.signIn(user)
}

// Login checks the password and returns a fresh token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, models.NewValidationError("", "email and password are required")
	}

	user, err := s.DB.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.Logger.LogSecurity("LOGIN_FAILED", "unknown email")
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("bad password for user %s", user.ID))
		return nil, models.ErrInvalidCredentials
	}
	return s.signIn(user)
}

func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	return s.DB.GetUserByID(ctx, userID)
}

func (s *UserService) signIn(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
