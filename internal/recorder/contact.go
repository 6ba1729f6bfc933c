package recorder

import (
	"fmt"
	"strings"

	"cv-navigator/internal/extract"
	"cv-navigator/internal/models"
)

var (
	firstNames = []string{"Priya", "Rahul", "Ananya", "Vikram", "Sneha", "Arjun", "Kavya", "Rohan", "Meera", "Aditya"}
	lastNames  = []string{"Sharma", "Patel", "Iyer", "Reddy", "Gupta", "Nair", "Menon", "Kapoor", "Singh", "Das"}
)

// syntheticContact invents a plausible recruiter at company. None of it is
// real.
func syntheticContact(company string, rng *lockedRand) models.Contact {
	first := firstNames[rng.IntN(len(firstNames))]
	last := lastNames[rng.IntN(len(lastNames))]

	domain := strings.ReplaceAll(extract.Slug(company), "-", "")
	if domain == "" {
		domain = "company"
	}

	return models.Contact{
		Name:     first + " " + last,
		Email:    fmt.Sprintf("%s.%s@%s.com", strings.ToLower(first), strings.ToLower(last), domain),
		LinkedIn: fmt.Sprintf("https://www.linkedin.com/in/%s-%s-%d", strings.ToLower(first), strings.ToLower(last), 100+rng.IntN(900)),
	}
}
