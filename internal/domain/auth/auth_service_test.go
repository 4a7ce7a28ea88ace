package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

// MockAuthRepo is a mock implementation of Repository
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) CreateUserWithTrial(ctx context.Context, name, email, passwordHash string, trialEnd time.Time, trialPlanID *uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, name, email, passwordHash, trialEnd, trialPlanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

// MockPlanStore is a mock implementation of PlanStore
type MockPlanStore struct {
	mock.Mock
}

func (m *MockPlanStore) GetPlanByName(ctx context.Context, name string) (*types.SubscriptionPlan, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SubscriptionPlan), args.Error(1)
}

var testJWTSecret = []byte("test-secret")

func newAuthTest() (*Service, *MockAuthRepo, *MockPlanStore) {
	repo := new(MockAuthRepo)
	plans := new(MockPlanStore)
	svc := NewService(repo, plans, testJWTSecret, time.Hour, slog.Default())
	return svc, repo, plans
}

func TestRegisterGrantsFourteenDayTrial(t *testing.T) {
	svc, repo, plans := newAuthTest()
	ctx := context.Background()

	planID := uuid.New()
	plans.On("GetPlanByName", ctx, "Monthly").Return(&types.SubscriptionPlan{ID: planID, Name: "Monthly"}, nil)

	var gotTrialEnd time.Time
	var gotHash string
	repo.On("CreateUserWithTrial", ctx, "Ada", "ada@example.com",
		mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"), &planID).
		Run(func(args mock.Arguments) {
			gotHash = args.String(3)
			gotTrialEnd = args.Get(4).(time.Time)
		}).
		Return(&types.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}, nil)

	before := time.Now().UTC()
	user, err := svc.Register(ctx, RegisterParams{
		Name:     "  Ada  ",
		Email:    "  Ada@Example.COM ",
		Password: "hunter22",
	})
	after := time.Now().UTC()

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	// Trial ends 14 days out.
	assert.False(t, gotTrialEnd.Before(before.AddDate(0, 0, 14)))
	assert.False(t, gotTrialEnd.After(after.AddDate(0, 0, 14)))

	// The stored hash verifies against the original password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(gotHash), []byte("hunter22")))
}

func TestRegisterWithoutSeededPlan(t *testing.T) {
	svc, repo, plans := newAuthTest()
	ctx := context.Background()

	plans.On("GetPlanByName", ctx, "Monthly").Return(nil, types.ErrNotFound)
	repo.On("CreateUserWithTrial", ctx, "Ada", "ada@example.com",
		mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"), (*uuid.UUID)(nil)).
		Return(&types.User{ID: uuid.New()}, nil)

	_, err := svc.Register(ctx, RegisterParams{Name: "Ada", Email: "ada@example.com", Password: "pw"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, repo, _ := newAuthTest()

	tests := []struct {
		name   string
		params RegisterParams
	}{
		{"missing name", RegisterParams{Email: "a@b.c", Password: "pw"}},
		{"missing email", RegisterParams{Name: "Ada", Password: "pw"}},
		{"missing password", RegisterParams{Name: "Ada", Email: "a@b.c"}},
		{"blank name", RegisterParams{Name: "   ", Email: "a@b.c", Password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.params)
			assert.True(t, errors.Is(err, types.ErrBadRequest))
		})
	}
	repo.AssertNotCalled(t, "CreateUserWithTrial")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, repo, plans := newAuthTest()
	ctx := context.Background()

	plans.On("GetPlanByName", ctx, "Monthly").Return(nil, types.ErrNotFound)
	repo.On("CreateUserWithTrial", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, types.ErrConflict)

	_, err := svc.Register(ctx, RegisterParams{Name: "Ada", Email: "ada@example.com", Password: "pw"})

	assert.True(t, errors.Is(err, types.ErrConflict))
}

func TestLoginIssuesToken(t *testing.T) {
	svc, repo, _ := newAuthTest()
	ctx := context.Background()

	userID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("GetUserByEmail", ctx, "ada@example.com").Return(&types.User{
		ID:           userID,
		Email:        "ada@example.com",
		PasswordHash: string(hash),
	}, nil)

	result, err := svc.Login(ctx, "Ada@Example.com", "hunter22")
	require.NoError(t, err)

	token, err := jwt.Parse(result.Token, func(t *jwt.Token) (any, error) {
		return testJWTSecret, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	sub, err := token.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, userID.String(), sub)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, _ := newAuthTest()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.On("GetUserByEmail", ctx, "ada@example.com").Return(&types.User{
		PasswordHash: string(hash),
	}, nil)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")

	assert.True(t, errors.Is(err, types.ErrUnauthenticated))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, repo, _ := newAuthTest()
	ctx := context.Background()

	repo.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, types.ErrNotFound)

	_, err := svc.Login(ctx, "ghost@example.com", "pw")

	// Unknown emails are indistinguishable from bad passwords.
	assert.True(t, errors.Is(err, types.ErrUnauthenticated))
}
