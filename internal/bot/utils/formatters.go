package utils

import (
	"fmt"
	"strings"
	"time"

	"cv-navigator/internal/currency"
	"cv-navigator/internal/extract"
	"cv-navigator/internal/models"
	"cv-navigator/internal/tracker"
)

const descriptionPreview = 300

// FormatJob renders one search result card. index is the 1-based position
// shown to the user.
func FormatJob(job models.JobListing, index int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%d\\. %s*\n\n", index, EscapeMarkdown(job.Title)))
	sb.WriteString(fmt.Sprintf("🏢 *Company:* %s\n", EscapeMarkdown(job.Company)))
	sb.WriteString(fmt.Sprintf("📍 *Location:* %s\n", EscapeMarkdown(job.Location)))
	sb.WriteString(fmt.Sprintf("💼 *Type:* %s\n", EscapeMarkdown(string(job.Type))))

	if job.Salary != nil {
		sb.WriteString(fmt.Sprintf("💰 *Salary:* %s\n", EscapeMarkdown(currency.FormatSalaryINR(job.Salary))))
	} else {
		sb.WriteString("💰 *Salary:* not disclosed\n")
	}

	if len(job.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("🛠 *Skills:* %s\n", EscapeMarkdown(strings.Join(job.Skills, ", "))))
	}

	if posted := job.PostedTime(); !posted.IsZero() {
		sb.WriteString(fmt.Sprintf("📅 *Posted:* %s\n", EscapeMarkdown(posted.Format("02 Jan 2006"))))
	}

	sb.WriteString(fmt.Sprintf("🔎 *Source:* %s\n", EscapeMarkdown(job.Source)))

	if desc := strings.TrimSpace(job.Description); desc != "" {
		sb.WriteString("\n")
		sb.WriteString(EscapeMarkdown(extract.Truncate(extract.CollapseSpace(desc), descriptionPreview)))
		sb.WriteString("\n")
	}

	return sb.String()
}

func FormatSearchSummary(query, location string, total, shown int) string {
	where := ""
	if location != "" {
		where = " in " + location
	}
	return fmt.Sprintf("📋 *Found %d jobs* for _%s_%s\nShowing %d\\.",
		total, EscapeMarkdown(query), EscapeMarkdown(where), shown)
}

func FormatApplyResult(job models.JobListing, res models.ApplyResult) string {
	var sb strings.Builder

	if res.Success {
		sb.WriteString(fmt.Sprintf("✅ *%s*\n\n", EscapeMarkdown(job.Title)))
	} else {
		sb.WriteString(fmt.Sprintf("❌ *%s*\n\n", EscapeMarkdown(job.Title)))
	}
	sb.WriteString(EscapeMarkdown(res.Message))
	sb.WriteString("\n")

	if res.Position > 0 {
		sb.WriteString(fmt.Sprintf("\n📨 You are applicant \\#%d\n", res.Position))
	}
	if res.ContactName != "" {
		sb.WriteString(fmt.Sprintf("\n👤 *Recruiter:* %s\n", EscapeMarkdown(res.ContactName)))
		sb.WriteString(fmt.Sprintf("✉️ %s\n", EscapeMarkdown(res.ContactEmail)))
	}

	return sb.String()
}

// FormatApplications shows the counters and the most recent entries.
func FormatApplications(apps []models.Application, stats tracker.Stats, limit int) string {
	if len(apps) == 0 {
		return "📭 *No applications yet*\n\nFind a job with /search and press Apply\\."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*📊 Applications: %d*\n", stats.Total))
	for _, s := range tracker.Statuses() {
		if n := stats.ByStatus[s]; n > 0 {
			sb.WriteString(fmt.Sprintf("%s %s: %d\n", statusIcon(s), EscapeMarkdown(string(s)), n))
		}
	}
	sb.WriteString("\n")

	start := 0
	if limit > 0 && len(apps) > limit {
		start = len(apps) - limit
	}
	for i := len(apps) - 1; i >= start; i-- {
		a := apps[i]
		sb.WriteString(fmt.Sprintf("%s *%s* at %s\n   %s, %s\n",
			statusIcon(a.Status),
			EscapeMarkdown(a.JobTitle),
			EscapeMarkdown(a.Company),
			EscapeMarkdown(string(a.Status)),
			EscapeMarkdown(a.AppliedDate.Format("02 Jan 2006")),
		))
	}

	return sb.String()
}

func FormatAlertHeader(sub models.AlertSubscription, count int) string {
	return fmt.Sprintf("🔔 *New jobs\\!*\n\n%d new results for _%s_",
		count, EscapeMarkdown(sub.Query))
}

func FormatSubscribed(sub models.AlertSubscription, every time.Duration) string {
	msg := fmt.Sprintf("🔔 Alerts on for _%s_", EscapeMarkdown(sub.Query))
	if sub.Location != "" {
		msg += " in " + EscapeMarkdown(sub.Location)
	}
	if every > 0 {
		msg += EscapeMarkdown(fmt.Sprintf(". I'll check every %s.", every))
	}
	return msg
}

func FormatWelcomeMessage(firstName string) string {
	name := firstName
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(`👋 Hi, *%s*\!

I search jobs across Adzuna, RemoteOK, Reed and Google, and keep track of your applications\.

*Commands:*
/search \- find jobs, e\.g\. /search golang in Bengaluru
/applications \- your application log
/subscribe \- get alerts for a saved search
/help \- help`, EscapeMarkdown(name))
}

func FormatHelpMessage() string {
	return `*📖 Help*

/search _query_ \[in _location_\] \- search all sources
/applications \- applications and their status
/subscribe _query_ \[in _location_\] \- alerts for new jobs
/unsubscribe \- stop alerts

Press *Apply* under a result to apply\. Upload your CV in the web app first\.
Salaries are shown per year in INR\.`
}

func FormatNoJobsMessage() string {
	return `😔 *No jobs found*

Try other keywords or drop the location\.`
}

func statusIcon(s models.ApplicationStatus) string {
	switch s {
	case models.StatusApplied:
		return "📨"
	case models.StatusInReview:
		return "👀"
	case models.StatusInterview:
		return "🗓"
	case models.StatusOffer:
		return "🎉"
	case models.StatusRejected:
		return "🚫"
	case models.StatusFailed:
		return "⚠️"
	}
	return "•"
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	// \ _ * [ ] ( ) ~ ` > # + - = | { } . !
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)

	return replacer.Replace(text)
}
