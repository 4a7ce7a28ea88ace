package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

const trialDays = 14

// defaultTrialPlanName is the plan the registration trial is attached
// to, purely for reporting; the trial itself is gated by the user's
// trial_end_date.
const defaultTrialPlanName = "Monthly"

// PlanStore resolves the default trial plan.
type PlanStore interface {
	GetPlanByName(ctx context.Context, name string) (*types.SubscriptionPlan, error)
}

// RegisterParams are the registration inputs.
type RegisterParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the issued access token.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *types.User `json:"user"`
}

// Service implements registration and login.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	plans     PlanStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewService(repo Repository, plans PlanStore, jwtSecret []byte, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		plans:     plans,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates the account with a 14-day trial and its trial
// subscription row.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*types.User, error) {
	l := s.logger.With(slog.String("method", "Register"), slog.String("email", params.Email))

	name := strings.TrimSpace(params.Name)
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if name == "" || email == "" || params.Password == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", types.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	trialEnd := time.Now().UTC().AddDate(0, 0, trialDays)

	// The trial subscription references the default plan when seeded;
	// its absence only means the user starts without a subscription row.
	var trialPlanID *uuid.UUID
	if plan, err := s.plans.GetPlanByName(ctx, defaultTrialPlanName); err == nil {
		trialPlanID = &plan.ID
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	user, err := s.repo.CreateUserWithTrial(ctx, name, email, string(hash), trialEnd, trialPlanID)
	if err != nil {
		return nil, err
	}

	l.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login validates credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := s.logger.With(slog.String("method", "Login"), slog.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("unknown email: %w", types.ErrUnauthenticated)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.WarnContext(ctx, "login with invalid password")
		return nil, fmt.Errorf("invalid password: %w", types.ErrUnauthenticated)
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
