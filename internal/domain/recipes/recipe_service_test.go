package recipes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

// MockRecipeRepo is a mock implementation of Repository
type MockRecipeRepo struct {
	mock.Mock
}

func (m *MockRecipeRepo) SaveRecipe(ctx context.Context, recipe *types.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Recipe, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Recipe), args.Error(1)
}

// MockChatClient is a mock implementation of llm.ChatClient
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockChatClient) Model() string {
	return "gemini-test"
}

// MockEntitlementGate is a mock implementation of EntitlementGate
type MockEntitlementGate struct {
	mock.Mock
}

func (m *MockEntitlementGate) RequireActive(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newRecipeTest() (*Service, *MockRecipeRepo, *MockChatClient, *MockEntitlementGate) {
	repo := new(MockRecipeRepo)
	chat := new(MockChatClient)
	gate := new(MockEntitlementGate)
	svc := NewService(repo, chat, gate, slog.Default())
	return svc, repo, chat, gate
}

func TestRecommendSavesUpToThree(t *testing.T) {
	svc, repo, chat, gate := newRecipeTest()
	userID := uuid.New()

	gate.On("RequireActive", mock.Anything, userID).Return(nil)
	chat.On("GenerateContent", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "eggs, tomatoes")
	})).Return(`[
		{"name":"A","ingredients":"a","instructions":"1"},
		{"name":"B","ingredients":"b","instructions":"2"},
		{"name":"C","ingredients":"c","instructions":"3"},
		{"name":"D","ingredients":"d","instructions":"4"}
	]`, nil)
	repo.On("SaveRecipe", mock.Anything, mock.AnythingOfType("*types.Recipe")).Return(nil)

	recipes, err := svc.Recommend(context.Background(), userID, "eggs, tomatoes")

	require.NoError(t, err)
	// The fourth recipe is dropped.
	assert.Len(t, recipes, 3)
	repo.AssertNumberOfCalls(t, "SaveRecipe", 3)
	for _, recipe := range recipes {
		assert.Equal(t, userID, recipe.UserID)
	}
}

func TestRecommendRequiresEntitlement(t *testing.T) {
	svc, repo, chat, gate := newRecipeTest()
	userID := uuid.New()

	gate.On("RequireActive", mock.Anything, userID).Return(types.ErrPaymentRequired)

	_, err := svc.Recommend(context.Background(), userID, "eggs")

	assert.True(t, errors.Is(err, types.ErrPaymentRequired))
	chat.AssertNotCalled(t, "GenerateContent")
	repo.AssertNotCalled(t, "SaveRecipe")
}

func TestRecommendRequiresIngredients(t *testing.T) {
	svc, _, chat, gate := newRecipeTest()
	userID := uuid.New()

	gate.On("RequireActive", mock.Anything, userID).Return(nil)

	_, err := svc.Recommend(context.Background(), userID, "")

	assert.True(t, errors.Is(err, types.ErrBadRequest))
	chat.AssertNotCalled(t, "GenerateContent")
}

func TestRecommendUnparseableReply(t *testing.T) {
	svc, repo, chat, gate := newRecipeTest()
	userID := uuid.New()

	gate.On("RequireActive", mock.Anything, userID).Return(nil)
	chat.On("GenerateContent", mock.Anything, mock.Anything).Return("I cannot help with that.", nil)

	_, err := svc.Recommend(context.Background(), userID, "eggs")

	assert.True(t, errors.Is(err, types.ErrBadRequest))
	repo.AssertNotCalled(t, "SaveRecipe")
}

func TestRecommendModelFailure(t *testing.T) {
	svc, repo, chat, gate := newRecipeTest()
	userID := uuid.New()

	gate.On("RequireActive", mock.Anything, userID).Return(nil)
	chat.On("GenerateContent", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	_, err := svc.Recommend(context.Background(), userID, "eggs")

	require.Error(t, err)
	repo.AssertNotCalled(t, "SaveRecipe")
}

func TestHistoryUsesListLimit(t *testing.T) {
	svc, repo, _, _ := newRecipeTest()
	userID := uuid.New()

	repo.On("ListByUser", mock.Anything, userID, 10).Return([]*types.Recipe{{Name: "A"}}, nil)

	recipes, err := svc.History(context.Background(), userID)

	require.NoError(t, err)
	assert.Len(t, recipes, 1)
	repo.AssertExpectations(t)
}
