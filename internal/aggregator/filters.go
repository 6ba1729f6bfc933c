package aggregator

import (
	"sort"
	"strings"

	"cv-navigator/internal/currency"
	"cv-navigator/internal/models"
)

// Dedup drops listings whose title and company (case-insensitive) were
// already seen. The first occurrence wins.
func Dedup(jobs []models.JobListing) []models.JobListing {
	seen := make(map[string]bool, len(jobs))
	out := make([]models.JobListing, 0, len(jobs))
	for _, j := range jobs {
		key := dedupKey(j)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, j)
	}
	return out
}

func dedupKey(j models.JobListing) string {
	return strings.ToLower(strings.TrimSpace(j.Title)) + "-" + strings.ToLower(strings.TrimSpace(j.Company))
}

// SortByPostedDate orders newest first. Listings with an unparseable date
// go last; ties keep their order.
func SortByPostedDate(jobs []models.JobListing) {
	sort.SliceStable(jobs, func(i, k int) bool {
		ti, tk := jobs[i].PostedTime(), jobs[k].PostedTime()
		if ti.IsZero() || tk.IsZero() {
			return !ti.IsZero() && tk.IsZero()
		}
		return ti.After(tk)
	})
}

// Filter applies, in order: job type, salary floor, experience level and
// remote-only. Each filter is skipped when its parameter is unset.
func Filter(jobs []models.JobListing, p models.SearchParams) []models.JobListing {
	out := make([]models.JobListing, 0, len(jobs))
	for _, j := range jobs {
		if matchesJobType(j, p.JobType) &&
			meetsSalary(j, p.SalaryMin) &&
			matchesExperience(j, p.ExperienceLevel) &&
			(!p.Remote || isRemote(j)) {
			out = append(out, j)
		}
	}
	return out
}

func matchesJobType(j models.JobListing, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || strings.EqualFold(want, "all") {
		return true
	}
	if t, ok := models.JobTypeMapping[strings.ToLower(want)]; ok {
		want = string(t)
	}
	return strings.EqualFold(string(j.Type), want)
}

// meetsSalary compares the yearly INR figure (max, else min) with the floor.
// Listings without a salary never meet a floor.
func meetsSalary(j models.JobListing, floor float64) bool {
	if floor <= 0 {
		return true
	}
	lo, hi := currency.AnnualINR(j.Salary)
	v := hi
	if v == nil {
		v = lo
	}
	return v != nil && *v >= floor
}

func matchesExperience(j models.JobListing, level string) bool {
	text := strings.ToLower(j.Title + " " + j.Description)
	entry := strings.Contains(text, "entry") || strings.Contains(text, "junior")
	senior := strings.Contains(text, "senior") || strings.Contains(text, "lead")

	switch strings.ToLower(strings.TrimSpace(level)) {
	case models.ExperienceEntry:
		return entry
	case models.ExperienceSenior:
		return senior
	case models.ExperienceMid:
		return !entry && !senior
	}
	return true
}

func isRemote(j models.JobListing) bool {
	return j.Type == models.JobTypeRemote || strings.Contains(strings.ToLower(j.Location), "remote")
}
