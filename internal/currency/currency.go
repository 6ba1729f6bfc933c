// Package currency normalizes salaries to INR so listings from different
// vendors can be compared and displayed the same way.
//
// Every function here is total: bad or missing input yields nil or a
// fallback string, never a panic or an error.
package currency

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cv-navigator/internal/models"
)

const INR = "INR"

// RatesToINR are fixed exchange rates, 1 unit of currency = N rupees.
var RatesToINR = map[string]float64{
	"USD": 83,
	"EUR": 90,
	"GBP": 105,
	"AUD": 55,
	"CAD": 61,
	"AED": 22.6,
	"SGD": 62,
	"JPY": 0.56,
	"INR": 1,
}

// annualization factors
var periodsPerYear = map[models.SalaryPeriod]float64{
	models.PeriodHourly:  2080,
	models.PeriodWeekly:  52,
	models.PeriodMonthly: 12,
	models.PeriodYearly:  1,
}

// Rate returns the INR rate for code. Unknown codes get the USD rate.
func Rate(code string) float64 {
	if rate, ok := RatesToINR[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return rate
	}
	return RatesToINR["USD"]
}

func ConvertToINR(amount float64, from string) int64 {
	return int64(math.Round(amount * Rate(from)))
}

// ConvertSalaryToINR returns s unchanged when it is nil or already INR.
// Otherwise it returns a new salary in INR that remembers the original figures.
func ConvertSalaryToINR(s *models.Salary) *models.Salary {
	if s == nil || strings.EqualFold(s.Currency, INR) {
		return s
	}

	out := &models.Salary{
		Currency:         INR,
		Period:           s.Period,
		OriginalCurrency: strings.ToUpper(s.Currency),
		OriginalMin:      copyFloat(s.Min),
		OriginalMax:      copyFloat(s.Max),
	}
	if s.Min != nil {
		out.Min = ptr(float64(ConvertToINR(*s.Min, s.Currency)))
	}
	if s.Max != nil {
		out.Max = ptr(float64(ConvertToINR(*s.Max, s.Currency)))
	}
	if out.Period == "" {
		out.Period = models.PeriodYearly
	}

	return out
}

// AnnualINR converts s to INR and scales both bounds to a yearly figure.
// Missing bounds stay nil.
func AnnualINR(s *models.Salary) (lo, hi *float64) {
	s = ConvertSalaryToINR(s)
	if s == nil {
		return nil, nil
	}

	factor, ok := periodsPerYear[s.Period]
	if !ok {
		factor = 1
	}

	if s.Min != nil {
		lo = ptr(*s.Min * factor)
	}
	if s.Max != nil {
		hi = ptr(*s.Max * factor)
	}
	return lo, hi
}

// FormatSalaryINR renders a salary as a yearly INR range, e.g.
// "₹15.00 L - ₹25.00 L per year".
func FormatSalaryINR(s *models.Salary) string {
	lo, hi := AnnualINR(s)

	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%s - %s per year", FormatAmount(*lo), FormatAmount(*hi))
	case lo != nil:
		return fmt.Sprintf("%s+ per year", FormatAmount(*lo))
	case hi != nil:
		return fmt.Sprintf("Up to %s per year", FormatAmount(*hi))
	}

	return "Not disclosed"
}

// FormatAmount abbreviates an INR amount with crore/lakh/thousand suffixes.
func FormatAmount(amount float64) string {
	switch {
	case amount >= 1e7:
		return fmt.Sprintf("₹%.2f Cr", amount/1e7)
	case amount >= 1e5:
		return fmt.Sprintf("₹%.2f L", amount/1e5)
	case amount >= 1e3:
		return fmt.Sprintf("₹%.2f K", amount/1e3)
	}
	return "₹" + GroupIndian(int64(math.Round(amount)))
}

// GroupIndian formats n with Indian digit grouping: 12,34,56,789.
func GroupIndian(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}

	return sign + strings.Join(groups, ",") + "," + tail
}

func ptr(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(*v)
}
