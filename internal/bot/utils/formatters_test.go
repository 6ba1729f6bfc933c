package utils

import (
	"strings"
	"testing"
	"time"

	"cv-navigator/internal/models"
	"cv-navigator/internal/tracker"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `C\+\+ \(senior\) \- 5\.5 yrs\!`, EscapeMarkdown("C++ (senior) - 5.5 yrs!"))
	assert.Equal(t, `a\\b\_c`, EscapeMarkdown(`a\b_c`))
	assert.Equal(t, "plain text", EscapeMarkdown("plain text"))
}

func TestFormatJob(t *testing.T) {
	lo, hi := 1500000.0, 2500000.0
	job := models.JobListing{
		ID:          "mock-1",
		Title:       "Go Developer (Backend)",
		Company:     "Acme Pvt. Ltd.",
		Location:    "Bengaluru",
		Type:        models.JobTypeFullTime,
		Salary:      &models.Salary{Min: &lo, Max: &hi, Currency: "INR", Period: models.PeriodYearly},
		Skills:      []string{"Go", "PostgreSQL"},
		PostedDate:  "2026-03-01T10:00:00Z",
		Source:      "Mock",
		Description: strings.Repeat("word ", 200),
	}

	out := FormatJob(job, 2)

	assert.True(t, strings.HasPrefix(out, `*2\. Go Developer \(Backend\)*`), out)
	assert.Contains(t, out, `Acme Pvt\. Ltd\.`)
	assert.Contains(t, out, `₹15\.00 L \- ₹25\.00 L per year`)
	assert.Contains(t, out, "Go, PostgreSQL")
	assert.Contains(t, out, "01 Mar 2026")
	assert.Contains(t, out, `\.\.\.`, "long descriptions are cut")
}

func TestFormatJobWithoutSalary(t *testing.T) {
	out := FormatJob(models.JobListing{Title: "Intern", Company: "X", Location: "Remote", Type: models.JobTypeInternship}, 1)
	assert.Contains(t, out, "not disclosed")
	assert.NotContains(t, out, "Skills")
}

func TestFormatApplications(t *testing.T) {
	assert.Contains(t, FormatApplications(nil, tracker.Stats{}, 5), "No applications yet")

	apps := []models.Application{
		{JobTitle: "Old", Company: "A", Status: models.StatusRejected, AppliedDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{JobTitle: "Mid", Company: "B", Status: models.StatusInterview, AppliedDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{JobTitle: "New", Company: "C", Status: models.StatusApplied, AppliedDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	stats := tracker.Stats{Total: 3, ByStatus: map[models.ApplicationStatus]int{
		models.StatusRejected:  1,
		models.StatusInterview: 1,
		models.StatusApplied:   1,
	}}

	out := FormatApplications(apps, stats, 2)

	assert.Contains(t, out, "Applications: 3")
	assert.Contains(t, out, "Interview: 1")
	assert.NotContains(t, out, "*Old*", "only the most recent entries are listed")
	assert.Less(t, strings.Index(out, "*New*"), strings.Index(out, "*Mid*"), "newest first")
}

func TestFormatApplyResult(t *testing.T) {
	job := models.JobListing{Title: "SRE"}

	out := FormatApplyResult(job, models.ApplyResult{Success: true, Message: "Done.", Position: 7, ContactName: "Priya Nair", ContactEmail: "priya.nair@acme.com"})
	assert.Contains(t, out, "✅")
	assert.Contains(t, out, `\#7`)
	assert.Contains(t, out, `priya\.nair@acme\.com`)

	out = FormatApplyResult(job, models.ApplyResult{Success: false, Message: "Nope."})
	assert.Contains(t, out, "❌")
}

func TestJobKeyboard(t *testing.T) {
	kb := JobKeyboard("a1b2c3", 3, "https://example.com/job")
	rows := kb.InlineKeyboard
	if assert.Len(t, rows, 1) && assert.Len(t, rows[0], 2) {
		assert.Contains(t, rows[0][0].Unique+rows[0][0].Data, "apply:a1b2c3:3")
		assert.Equal(t, "https://example.com/job", rows[0][1].URL)
	}

	kb = JobKeyboard("a1b2c3", 0, "")
	assert.Len(t, kb.InlineKeyboard[0], 1)

	kb = JobKeyboard("", 0, "https://example.com/job")
	if assert.Len(t, kb.InlineKeyboard[0], 1) {
		assert.Equal(t, "https://example.com/job", kb.InlineKeyboard[0][0].URL)
	}
}
