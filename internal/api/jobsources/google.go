package jobsources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cv-navigator/internal/currency"
	"cv-navigator/internal/extract"
	"cv-navigator/internal/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	googlePageSize    = 10
	googleMaxStart    = 91
	defaultMaxResults = 25
)

// siteGroups rotate across pages so results come from a spread of boards.
var siteGroups = [][]string{
	{"linkedin.com/jobs", "indeed.com", "glassdoor.com"},
	{"monster.com", "ziprecruiter.com", "dice.com"},
	{"wellfound.com", "remoteok.com", "stackoverflow.com/jobs"},
}

var jobWords = []string{
	"job", "hiring", "career", "position", "role", "vacancy", "opening", "engineer",
	"developer", "manager", "analyst", "designer", "intern", "recruit", "apply",
}

var experiencePhrases = map[string]string{
	models.ExperienceEntry:  `("entry level" OR junior)`,
	models.ExperienceMid:    `("mid level" OR intermediate)`,
	models.ExperienceSenior: `(senior OR lead)`,
}

var dateRestricts = map[string]string{
	"day":   "d1",
	"week":  "w1",
	"month": "m1",
}

// "Go Developer at Acme", "Go Developer - Acme | LinkedIn"
var titleCompanyRe = regexp.MustCompile(`^(.+?)\s+(?:at|@|-|–|\|)\s+(.+?)(?:\s+[-|–]\s+.*)?$`)

type GoogleConfig struct {
	APIKey     string
	EngineID   string
	BaseURL    string
	MaxResults int
}

// Google finds job postings through a Google Custom Search engine restricted
// to job boards.
type Google struct {
	client *Client
	cfg    GoogleConfig
	logger *zap.Logger
}

func NewGoogle(client *Client, cfg GoogleConfig, logger *zap.Logger) *Google {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	return &Google{
		client: client,
		cfg:    cfg,
		logger: logger.Named("google"),
	}
}

func (g *Google) Name() string { return SourceGoogle }

func (g *Google) Configured() bool {
	return g.cfg.APIKey != "" && g.cfg.EngineID != ""
}

// Search pages through the engine until MaxResults hits are collected, one
// request per page of up to ten. A failing page is skipped, except for an
// invalid engine ID, which aborts the call with ErrInvalidSearchEngineID. A
// short page means the engine has no more results.
func (g *Google) Search(ctx context.Context, q Query) ([]models.JobListing, error) {
	if !g.Configured() {
		g.logger.Debug("api key or engine id not set, skipping")
		return nil, nil
	}

	limit := q.MaxResults
	if limit <= 0 {
		limit = g.cfg.MaxResults
	}
	pages := (limit + googlePageSize - 1) / googlePageSize

	var hits []gjson.Result
	for page := 0; page < pages && len(hits) < limit; page++ {
		start := 1 + page*googlePageSize
		if start > googleMaxStart {
			break
		}
		num := limit - len(hits)
		if num > googlePageSize {
			num = googlePageSize
		}

		items, err := g.fetchPage(ctx, q, page, start, num)
		if errors.Is(err, ErrInvalidSearchEngineID) {
			return nil, err
		}
		if err != nil {
			g.logger.Warn("page failed, skipping",
				zap.Int("start", start),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		hits = append(hits, items...)
		if len(items) < num {
			break
		}
	}

	jobs := g.processHits(hits, q)
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}

	g.logger.Debug("search complete",
		zap.Int("hits", len(hits)),
		zap.Int("returned", len(jobs)),
		zap.String("query", q.Keywords),
	)

	return jobs, nil
}

func (g *Google) fetchPage(ctx context.Context, q Query, page, start, num int) ([]gjson.Result, error) {
	params := url.Values{}
	params.Set("key", g.cfg.APIKey)
	params.Set("cx", g.cfg.EngineID)
	params.Set("q", BuildGoogleQuery(q, page))
	params.Set("start", strconv.Itoa(start))
	params.Set("num", strconv.Itoa(num))
	if r, ok := dateRestricts[strings.ToLower(q.DatePosted)]; ok {
		params.Set("dateRestrict", r)
	}

	data, err := g.client.Get(ctx, g.cfg.BaseURL, params, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			if apiErr := checkGoogleError(statusErr.Body); apiErr != nil {
				return nil, apiErr
			}
		}
		return nil, err
	}

	if apiErr := checkGoogleError(data); apiErr != nil {
		return nil, apiErr
	}

	return gjson.GetBytes(data, "items").Array(), nil
}

// checkGoogleError inspects the "error" object of a response body.
func checkGoogleError(body []byte) error {
	e := gjson.GetBytes(body, "error")
	if !e.Exists() {
		return nil
	}

	msg := e.Get("message").String()
	if msg == "" {
		msg = e.String()
	}
	if strings.Contains(msg, "invalid argument") || strings.Contains(msg, "Invalid Value") {
		return ErrInvalidSearchEngineID
	}
	return fmt.Errorf("google api error %d: %s", e.Get("code").Int(), msg)
}

// BuildGoogleQuery assembles the boolean query for the given page. The
// site restriction depends on the page.
func BuildGoogleQuery(q Query, page int) string {
	var parts []string

	if kw := strings.TrimSpace(q.Keywords); kw != "" {
		parts = append(parts, strconv.Quote(kw))
	}
	parts = append(parts, `(job OR hiring OR career OR "JobPosting")`)

	if loc := strings.TrimSpace(q.Location); loc != "" {
		parts = append(parts, strconv.Quote(loc))
	}
	if jt := strings.TrimSpace(q.JobType); jt != "" && !strings.EqualFold(jt, "all") {
		parts = append(parts, strconv.Quote(jt))
	}
	if ind := strings.TrimSpace(q.Industry); ind != "" {
		parts = append(parts, strconv.Quote(ind))
	}
	if phrase, ok := experiencePhrases[strings.ToLower(q.ExperienceLevel)]; ok {
		parts = append(parts, phrase)
	}

	group := siteGroups[page%len(siteGroups)]
	sites := make([]string, len(group))
	for i, s := range group {
		sites[i] = "site:" + s
	}
	parts = append(parts, "("+strings.Join(sites, " OR ")+")")

	return strings.Join(parts, " ")
}

func (g *Google) processHits(hits []gjson.Result, q Query) []models.JobListing {
	seen := make(map[string]bool, len(hits))
	jobs := make([]models.JobListing, 0, len(hits))

	for _, item := range hits {
		job := googleHitToListing(item, q)

		key := strings.ToLower(job.Title) + "|" + strings.ToLower(job.Company)
		if seen[key] {
			continue
		}
		seen[key] = true

		if !extract.ContainsAny(strings.ToLower(job.Title+" "+job.Description), jobWords) {
			continue
		}
		jobs = append(jobs, job)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].PostedTime().After(jobs[j].PostedTime())
	})

	return jobs
}

func googleHitToListing(item gjson.Result, q Query) models.JobListing {
	jp := item.Get("pagemap.jobposting.0")
	snippet := extract.CollapseSpace(item.Get("snippet").String())

	rawTitle := firstNonEmpty(jp.Get("title").String(), item.Get("title").String())
	title, company := splitTitle(rawTitle)
	if org := jp.Get("hiringorganization").String(); org != "" {
		company = org
	}
	if company == "" {
		company = strings.TrimPrefix(item.Get("displayLink").String(), "www.")
	}

	description := snippet
	if d := extract.StripHTML(jp.Get("description").String()); d != "" {
		description = d
	}

	posted := firstNonEmpty(
		jp.Get("dateposted").String(),
		jp.Get("datePosted").String(),
		item.Get("pagemap.metatags.0.article:published_time").String(),
	)

	job := models.JobListing{
		Title:        title,
		Company:      company,
		Location:     firstNonEmpty(jp.Get("joblocation").String(), q.Location),
		Description:  description,
		Requirements: extract.Requirements(description),
		Skills:       extract.Skills(title+"\n"+description, extract.MaxSkills),
		Industry:     extract.Industry(title + "\n" + description),
		PostedDate:   posted,
		ApplyURL:     item.Get("link").String(),
		Source:       SourceGoogle,
		CompanyLogo:  item.Get("pagemap.cse_thumbnail.0.src").String(),
		Type:         googleJobType(jp.Get("employmenttype").String(), q.JobType, title+" "+snippet),
	}

	job.Salary = jobPostingSalary(jp)
	if job.Salary == nil {
		job.Salary = currency.ParseSalaryFromText(snippet)
	}

	return job
}

func jobPostingSalary(jp gjson.Result) *models.Salary {
	if !jp.Exists() {
		return nil
	}

	lo := parseNumber(jp.Get("minvalue").String())
	hi := parseNumber(jp.Get("maxvalue").String())
	if lo == nil && hi == nil {
		lo = parseNumber(jp.Get("basesalary").String())
	}
	if lo == nil && hi == nil {
		return nil
	}

	cur := strings.ToUpper(jp.Get("currency").String())
	if cur == "" {
		cur = currency.INR
	}

	return &models.Salary{
		Min:      lo,
		Max:      hi,
		Currency: cur,
		Period:   unitPeriod(jp.Get("unittext").String()),
	}
}

func unitPeriod(unit string) models.SalaryPeriod {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "HOUR":
		return models.PeriodHourly
	case "WEEK":
		return models.PeriodWeekly
	case "MONTH":
		return models.PeriodMonthly
	}
	return models.PeriodYearly
}

func googleJobType(employmentType, wanted, text string) models.JobType {
	if employmentType != "" {
		return models.MapJobType(employmentType)
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "intern"):
		return models.JobTypeInternship
	case strings.Contains(lower, "part-time"), strings.Contains(lower, "part time"):
		return models.JobTypePartTime
	case strings.Contains(lower, "contract"):
		return models.JobTypeContract
	case strings.Contains(lower, "remote"):
		return models.JobTypeRemote
	}

	if wanted != "" && !strings.EqualFold(wanted, "all") {
		return models.MapJobType(wanted)
	}
	return models.JobTypeFullTime
}

// splitTitle separates "Title at Company" style page titles.
func splitTitle(raw string) (title, company string) {
	raw = strings.TrimSpace(raw)
	if m := titleCompanyRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return raw, ""
}

func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
