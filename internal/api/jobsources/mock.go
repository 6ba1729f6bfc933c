package jobsources

import (
	"context"
	"strings"
	"time"

	"cv-navigator/internal/extract"
	"cv-navigator/internal/models"
)

// Mock serves a fixed set of listings. It backs offline development and is
// the optional fallback when every real source comes back empty.
type Mock struct {
	now func() time.Time
}

func NewMock() *Mock {
	return &Mock{now: time.Now}
}

func (m *Mock) Name() string { return SourceMock }

// Search filters the fixed list by keywords and location. When nothing
// matches it returns the whole list.
func (m *Mock) Search(_ context.Context, q Query) ([]models.JobListing, error) {
	all := m.Listings()

	var out []models.JobListing
	for _, job := range all {
		haystack := strings.Join(append([]string{job.Title, job.Company, job.Description}, job.Skills...), " ")
		if !extract.MatchKeywords(haystack, q.Keywords, false) {
			continue
		}
		if q.Location != "" && !strings.Contains(strings.ToLower(job.Location), strings.ToLower(q.Location)) {
			continue
		}
		out = append(out, job)
	}

	if len(out) == 0 {
		return all, nil
	}
	return out, nil
}

// Listings returns a fresh copy of the fixed data set, dated relative to now.
func (m *Mock) Listings() []models.JobListing {
	now := m.now().UTC()
	daysAgo := func(d int) string {
		return now.AddDate(0, 0, -d).Format(time.RFC3339)
	}

	return []models.JobListing{
		{
			ID:           "mock-1",
			Title:        "Senior Go Engineer",
			Company:      "Razorpay",
			Location:     "Bengaluru, India",
			Description:  "Build payment infrastructure in Go on Kubernetes and AWS. Lead a small team.",
			Requirements: []string{"5+ years of experience with Go", "Knowledge of distributed systems"},
			Skills:       []string{"Go", "Kubernetes", "AWS", "PostgreSQL"},
			Salary:       &models.Salary{Min: amount(3000000), Max: amount(4500000), Currency: "INR", Period: models.PeriodYearly},
			Type:         models.JobTypeFullTime,
			PostedDate:   daysAgo(1),
			ApplyURL:     "https://razorpay.com/jobs/",
			Source:       SourceMock,
			Industry:     "Finance",
			CanAutoApply: true,
		},
		{
			ID:           "mock-2",
			Title:        "Junior Frontend Developer",
			Company:      "Freshworks",
			Location:     "Chennai, India",
			Description:  "Entry level role building React and TypeScript interfaces.",
			Requirements: []string{"Degree in computer science or equivalent experience"},
			Skills:       []string{"React", "TypeScript", "CSS", "HTML"},
			Salary:       &models.Salary{Min: amount(600000), Max: amount(900000), Currency: "INR", Period: models.PeriodYearly},
			Type:         models.JobTypeFullTime,
			PostedDate:   daysAgo(2),
			ApplyURL:     "https://careers.freshworks.com/",
			Source:       SourceMock,
			Industry:     "Technology",
			CanAutoApply: true,
		},
		{
			ID:           "mock-3",
			Title:        "Data Analyst",
			Company:      "Flipkart",
			Location:     "Bengaluru, India",
			Description:  "Analyse marketplace data with SQL, Python and Tableau.",
			Requirements: []string{"Proficient in SQL", "2+ years of experience in analytics"},
			Skills:       []string{"SQL", "Python", "Tableau", "Excel"},
			Salary:       &models.Salary{Min: amount(100000), Max: amount(150000), Currency: "INR", Period: models.PeriodMonthly},
			Type:         models.JobTypeFullTime,
			PostedDate:   daysAgo(4),
			ApplyURL:     "https://www.flipkartcareers.com/",
			Source:       SourceMock,
			Industry:     "E-commerce",
			CanAutoApply: false,
		},
		{
			ID:           "mock-4",
			Title:        "Backend Engineer (Remote)",
			Company:      "Hasura",
			Location:     "Remote",
			Description:  "Remote-first team working on GraphQL engines in Go and Haskell.",
			Requirements: []string{"Experience with GraphQL", "Must be comfortable working async"},
			Skills:       []string{"Go", "GraphQL", "PostgreSQL", "Docker"},
			Salary:       &models.Salary{Min: amount(60000), Max: amount(90000), Currency: "USD", Period: models.PeriodYearly},
			Type:         models.JobTypeRemote,
			PostedDate:   daysAgo(3),
			ApplyURL:     "https://hasura.io/careers/",
			Source:       SourceMock,
			Industry:     "Technology",
			CanAutoApply: true,
		},
		{
			ID:           "mock-5",
			Title:        "Product Design Intern",
			Company:      "CRED",
			Location:     "Bengaluru, India",
			Description:  "Six month internship with the design team, working in Figma.",
			Requirements: []string{"Portfolio required"},
			Skills:       []string{"Figma", "Communication"},
			Salary:       &models.Salary{Min: amount(40000), Currency: "INR", Period: models.PeriodMonthly},
			Type:         models.JobTypeInternship,
			PostedDate:   daysAgo(6),
			ApplyURL:     "https://careers.cred.club/",
			Source:       SourceMock,
			Industry:     "Finance",
			CanAutoApply: false,
		},
		{
			ID:           "mock-6",
			Title:        "DevOps Lead",
			Company:      "Zoho",
			Location:     "Chennai, India",
			Description:  "Lead the platform team: Terraform, Kubernetes, CI/CD and Linux fleet management.",
			Requirements: []string{"7+ years of experience in operations", "Knowledge of Terraform"},
			Skills:       []string{"Terraform", "Kubernetes", "CI/CD", "Linux"},
			Type:         models.JobTypeFullTime,
			PostedDate:   daysAgo(8),
			ApplyURL:     "https://www.zoho.com/careers/",
			Source:       SourceMock,
			Industry:     "Technology",
			CanAutoApply: true,
		},
		{
			ID:           "mock-7",
			Title:        "Machine Learning Engineer",
			Company:      "Sarvam AI",
			Location:     "Bengaluru, India",
			Description:  "Train and ship language models with PyTorch. Hiring now via Google Jobs.",
			Requirements: []string{"Experience with PyTorch required"},
			Skills:       []string{"Python", "PyTorch", "Machine Learning"},
			Salary:       &models.Salary{Min: amount(2500000), Max: amount(5000000), Currency: "INR", Period: models.PeriodYearly},
			Type:         models.JobTypeFullTime,
			PostedDate:   daysAgo(0),
			ApplyURL:     "https://www.sarvam.ai/careers",
			Source:       SourceGoogleJobs,
			Industry:     "Technology",
		},
		{
			ID:           "mock-8",
			Title:        "Contract Python Developer",
			Company:      "Toptal",
			Location:     "Remote",
			Description:  "Three month contract building Django APIs.",
			Requirements: []string{"Proficient in Django"},
			Skills:       []string{"Python", "Django", "REST"},
			Salary:       &models.Salary{Min: amount(40), Max: amount(60), Currency: "USD", Period: models.PeriodHourly},
			Type:         models.JobTypeContract,
			PostedDate:   daysAgo(5),
			ApplyURL:     "https://www.toptal.com/careers",
			Source:       SourceMock,
			Industry:     "Consulting",
			CanAutoApply: false,
		},
	}
}

func amount(v float64) *float64 {
	return &v
}
