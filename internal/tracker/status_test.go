package tracker

import (
	"testing"

	"cv-navigator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to models.ApplicationStatus
		want     bool
	}{
		{models.StatusApplied, models.StatusInReview, true},
		{models.StatusApplied, models.StatusOffer, true},
		{models.StatusInReview, models.StatusInterview, true},
		{models.StatusInterview, models.StatusOffer, true},
		{models.StatusInterview, models.StatusInReview, false},
		{models.StatusOffer, models.StatusRejected, false},
		{models.StatusRejected, models.StatusApplied, false},
		{models.StatusFailed, models.StatusApplied, false},
		{models.StatusApplied, models.StatusFailed, false},
		{models.StatusApplied, models.StatusApplied, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransitionAllowed(tt.from, tt.to))
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []models.ApplicationStatus{models.StatusOffer, models.StatusRejected, models.StatusFailed} {
		assert.True(t, IsTerminal(s), s)
	}
	assert.False(t, IsTerminal(models.StatusApplied))
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]models.ApplicationStatus{
		"Applied":    models.StatusApplied,
		"in review":  models.StatusInReview,
		"IN_REVIEW":  models.StatusInReview,
		"in-review":  models.StatusInReview,
		" interview": models.StatusInterview,
		"offer":      models.StatusOffer,
	} {
		got, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseStatus("ghosted")
	assert.Error(t, err)
}
