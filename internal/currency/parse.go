package currency

import (
	"regexp"
	"strconv"
	"strings"

	"cv-navigator/internal/models"
)

const (
	num  = `(\d[\d,]*(?:\.\d+)?)`
	unit = `\s*(k|lpa|lakhs?|lacs?|l|cr|crores?)?\b`
	sep  = `\s*(?:-|–|to)\s*`
)

type salaryPattern struct {
	re       *regexp.Regexp
	currency string
}

// Order matters: the first pattern that matches wins.
var salaryPatterns = []salaryPattern{
	{regexp.MustCompile(`(?i)₹\s*` + num + unit + `(?:` + sep + `₹?\s*` + num + unit + `)?`), "INR"},
	{regexp.MustCompile(`(?i)\b(?:INR|Rs\.?)\s*` + num + unit + `(?:` + sep + `(?:INR|Rs\.?)?\s*` + num + unit + `)?`), "INR"},
	{regexp.MustCompile(`(?i)\$\s*` + num + unit + `(?:` + sep + `\$?\s*` + num + unit + `)?`), "USD"},
	{regexp.MustCompile(`(?i)\bUSD\s*` + num + unit + `(?:` + sep + `(?:USD\s*)?` + num + unit + `)?`), "USD"},
	{regexp.MustCompile(`(?i)` + num + unit + `(?:` + sep + num + unit + `)?\s*USD\b`), "USD"},
	{regexp.MustCompile(`(?i)` + num + unit + sep + num + unit + `\s*(?:per|/|a|an)\s*(?:hour|hr|week|wk|month|mo|year|yr|annum)\b`), "INR"},
}

var (
	hourlyHint  = regexp.MustCompile(`(?i)(?:\bper\s+hour\b|/\s*h(?:ou)?r\b|\bhourly\b|\ban?\s+hour\b)`)
	weeklyHint  = regexp.MustCompile(`(?i)(?:\bper\s+week\b|/\s*w(?:ee)?k\b|\bweekly\b|\ban?\s+week\b)`)
	monthlyHint = regexp.MustCompile(`(?i)(?:\bper\s+month\b|/\s*mo(?:nth)?\b|\bmonthly\b|\ban?\s+month\b)`)
)

// hint window after the matched figures
const periodLookahead = 32

// ParseSalaryFromText guesses a salary from free text such as a search
// snippet. The numbers are not sanity-checked. Returns nil when nothing
// looks like a salary.
func ParseSalaryFromText(text string) *models.Salary {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, p := range salaryPatterns {
		loc := p.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}

		groups := make([]string, 5)
		for i := 1; i <= 4 && 2*i+1 < len(loc); i++ {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}

		lo, ok := parseAmount(groups[1])
		if !ok {
			continue
		}

		loUnit, hiUnit := strings.ToLower(groups[2]), strings.ToLower(groups[4])
		if loUnit == "" {
			loUnit = hiUnit
		}
		if hiUnit == "" {
			hiUnit = loUnit
		}

		salary := &models.Salary{
			Currency: p.currency,
			Min:      ptr(lo * multiplier(loUnit)),
		}
		if hi, ok := parseAmount(groups[3]); ok {
			salary.Max = ptr(hi * multiplier(hiUnit))
		}

		end := loc[1] + periodLookahead
		if end > len(text) {
			end = len(text)
		}
		salary.Period = detectPeriod(text[loc[0]:end], loUnit)

		return salary
	}

	return nil
}

func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func multiplier(u string) float64 {
	switch u {
	case "k":
		return 1e3
	case "l", "lpa", "lakh", "lakhs", "lac", "lacs":
		return 1e5
	case "cr", "crore", "crores":
		return 1e7
	}
	return 1
}

func detectPeriod(window, u string) models.SalaryPeriod {
	if u == "lpa" {
		return models.PeriodYearly
	}
	switch {
	case hourlyHint.MatchString(window):
		return models.PeriodHourly
	case weeklyHint.MatchString(window):
		return models.PeriodWeekly
	case monthlyHint.MatchString(window):
		return models.PeriodMonthly
	}
	return models.PeriodYearly
}
