package payments

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

func TestBuildAPIRef(t *testing.T) {
	userID := uuid.MustParse("6f1f64b5-3f9c-4c9e-9e48-1a2b3c4d5e6f")
	planID := uuid.MustParse("0d9e8f7a-6b5c-4d3e-2f1a-0b9c8d7e6f5a")
	now := time.Date(2026, 3, 15, 9, 30, 45, 0, time.UTC)

	ref := BuildAPIRef(userID, planID, now)
	assert.Equal(t, "sub_"+userID.String()+"_"+planID.String()+"_20260315093045", ref)
}

func TestParseAPIRefRoundTrip(t *testing.T) {
	userID := uuid.New()
	planID := uuid.New()

	ref := BuildAPIRef(userID, planID, time.Now())

	gotUser, gotPlan, err := ParseAPIRef(ref)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, planID, gotPlan)
}

func TestParseAPIRefMalformed(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"empty", ""},
		{"wrong prefix", "pay_" + uuid.New().String() + "_" + uuid.New().String() + "_20260101000000"},
		{"too few parts", "sub_" + uuid.New().String()},
		{"too many parts", "sub_a_b_c_d"},
		{"non-uuid user", "sub_not-a-uuid_" + uuid.New().String() + "_20260101000000"},
		{"non-uuid plan", "sub_" + uuid.New().String() + "_not-a-uuid_20260101000000"},
		{"gateway invoice id", "INV-12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseAPIRef(tt.ref)
			assert.True(t, errors.Is(err, types.ErrBadRequest), "expected ErrBadRequest, got %v", err)
		})
	}
}
