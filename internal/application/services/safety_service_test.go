package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kyrelabs/dealsource/pkg/errors"
)

func TestCheckSafety_Safe(t *testing.T) {
	s := NewSafetyService(nil)

	result := s.CheckSafety("nike running shoes size 10")
	assert.Equal(t, SafetyStatusSafe, result.Status)
	assert.Empty(t, result.Reason)
}

func TestCheckSafety_Blocked(t *testing.T) {
	s := NewSafetyService(nil)

	result := s.CheckSafety("hire a hitman")
	assert.Equal(t, SafetyStatusBlocked, result.Status)
	assert.Equal(t, "This request violates our safety policies.", result.Reason)
}

func TestCheckSafety_Sensitive(t *testing.T) {
	s := NewSafetyService(nil)

	result := s.CheckSafety("hunting firearm for sale")
	assert.Equal(t, SafetyStatusNeedsReview, result.Status)
	assert.Equal(t, "This request involves a sensitive category and requires manual verification.", result.Reason)
}

func TestCheckSafety_BlockedWinsOverSensitive(t *testing.T) {
	s := NewSafetyService(nil)

	// Matches both a blocked pattern and a sensitive one
	result := s.CheckSafety("fentanyl prescription")
	assert.Equal(t, SafetyStatusBlocked, result.Status)
}

func TestCheckSafety_CaseInsensitive(t *testing.T) {
	s := NewSafetyService(nil)

	result := s.CheckSafety("MURDER FOR HIRE services")
	assert.Equal(t, SafetyStatusBlocked, result.Status)
}

func TestSafetyResult_Err(t *testing.T) {
	s := NewSafetyService(nil)

	var appErr *apperrors.AppError
	err := s.CheckSafety("hire a hitman").Err()
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeBlocked, appErr.Type)
	assert.Equal(t, "This request violates our safety policies.", appErr.Message)

	assert.NoError(t, s.CheckSafety("nike running shoes").Err())
	// Review is a policy decision, not an error
	assert.NoError(t, s.CheckSafety("hunting firearm for sale").Err())
}

func TestCheckSafety_ExtraSensitiveTerms(t *testing.T) {
	s := NewSafetyService([]string{"Ivory", ""})

	result := s.CheckSafety("antique ivory carving")
	assert.Equal(t, SafetyStatusNeedsReview, result.Status)

	// Word boundaries keep substrings safe
	result = s.CheckSafety("ivories piano keys")
	assert.Equal(t, SafetyStatusSafe, result.Status)
}
