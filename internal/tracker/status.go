package tracker

import (
	"fmt"
	"strings"

	"cv-navigator/internal/models"
)

// transitions is the board an application moves across. Statuses without an
// entry are terminal.
var transitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusApplied: {
		models.StatusInReview,
		models.StatusRejected,
		models.StatusInterview,
		models.StatusOffer,
	},
	models.StatusInReview: {
		models.StatusInterview,
		models.StatusRejected,
		models.StatusOffer,
	},
	models.StatusInterview: {
		models.StatusOffer,
		models.StatusRejected,
	},
}

func Statuses() []models.ApplicationStatus {
	return []models.ApplicationStatus{
		models.StatusApplied,
		models.StatusInReview,
		models.StatusInterview,
		models.StatusOffer,
		models.StatusRejected,
		models.StatusFailed,
	}
}

func IsTransitionAllowed(from, to models.ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s models.ApplicationStatus) bool {
	return len(transitions[s]) == 0
}

// ParseStatus accepts display names in any case, and the snake/kebab forms
// ("in_review", "in-review").
func ParseStatus(raw string) (models.ApplicationStatus, error) {
	norm := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(raw))
	for _, s := range Statuses() {
		if strings.EqualFold(string(s), norm) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", raw)
}
