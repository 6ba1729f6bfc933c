// Package extract holds the keyword heuristics adapters use to fill in
// skills, requirements and industry from free-text job descriptions.
package extract

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	MaxSkills       = 10
	MaxRequirements = 5
	maxRequirement  = 200
)

// SkillVocabulary is scanned in order, so extracted skills keep this order.
var SkillVocabulary = []string{
	"JavaScript", "TypeScript", "Python", "Java", "Go", "Golang", "Rust", "C++", "C#", "Ruby",
	"PHP", "Kotlin", "Swift", "Scala", "React", "Angular", "Vue", "Next.js", "Node.js",
	"Django", "Flask", "Spring", "Express", ".NET", "HTML", "CSS", "SQL", "PostgreSQL",
	"MySQL", "MongoDB", "Redis", "GraphQL", "REST", "AWS", "Azure", "GCP", "Docker",
	"Kubernetes", "Terraform", "Linux", "Git", "CI/CD", "Machine Learning", "Data Analysis",
	"TensorFlow", "PyTorch", "Pandas", "Excel", "Tableau", "Power BI", "Figma", "Agile",
	"Scrum", "Salesforce", "SEO", "Communication", "Leadership",
}

var requirementKeywords = []string{
	"experience", "degree", "required", "requirement", "must", "proficient",
	"proficiency", "knowledge of", "familiar", "bachelor", "master's", "qualification",
	"years of",
}

type industryRule struct {
	name     string
	keywords []string
}

var industryRules = []industryRule{
	{"Technology", []string{"software", "developer", "saas", "cloud", "devops", "it services", "engineer"}},
	{"Finance", []string{"fintech", "bank", "finance", "accounting", "investment", "insurance"}},
	{"Healthcare", []string{"hospital", "healthcare", "clinical", "pharma", "medical"}},
	{"Education", []string{"edtech", "university", "school", "teaching", "education"}},
	{"E-commerce", []string{"e-commerce", "ecommerce", "retail", "marketplace"}},
	{"Marketing", []string{"marketing", "advertising", "seo", "brand"}},
	{"Manufacturing", []string{"manufacturing", "factory", "supply chain", "automotive"}},
	{"Consulting", []string{"consulting", "consultancy", "advisory"}},
	{"Media", []string{"media", "publishing", "entertainment", "gaming"}},
}

// StripHTML returns the visible text of an HTML fragment with whitespace
// collapsed. Plain text passes through unchanged apart from whitespace.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CollapseSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return CollapseSpace(s)
	}

	doc.Find("script, style").Remove()
	doc.Find("br, p, li, div, h1, h2, h3, h4, tr").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	return CollapseSpace(doc.Text())
}

// CollapseSpace squeezes runs of spaces and tabs, keeps single newlines
// as sentence breaks and trims the result.
func CollapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Truncate cuts s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if n <= 3 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}

// Skills scans text for SkillVocabulary terms, in vocabulary order, up to limit.
func Skills(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxSkills
	}

	lower := strings.ToLower(text)
	skills := make([]string, 0, limit)
	for _, skill := range SkillVocabulary {
		if len(skills) == limit {
			break
		}
		if ContainsTerm(lower, strings.ToLower(skill)) {
			skills = append(skills, skill)
		}
	}
	return skills
}

// MergeSkills appends extra skills not already present (case-insensitive),
// keeping the result within limit.
func MergeSkills(skills, extra []string, limit int) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills)+len(extra))
	for _, s := range append(append([]string{}, skills...), extra...) {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Requirements picks sentences that read like requirements, at most
// MaxRequirements of them.
func Requirements(text string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, sentence := range splitSentences(text) {
		if len(out) == MaxRequirements {
			break
		}
		lower := strings.ToLower(sentence)
		if len(sentence) < 10 || seen[lower] || !ContainsAny(lower, requirementKeywords) {
			continue
		}
		seen[lower] = true
		out = append(out, Truncate(sentence, maxRequirement))
	}

	return out
}

// Industry returns the first industry whose keywords occur in text, or "".
func Industry(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range industryRules {
		for _, kw := range rule.keywords {
			if ContainsTerm(lower, kw) {
				return rule.name
			}
		}
	}
	return ""
}

// ContainsAny reports whether lowered text contains any of the (lowercase) words.
func ContainsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// ContainsTerm is a whole-word search of term in text, both lowercase.
// Terms may contain punctuation (c++, node.js, ci/cd).
func ContainsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		from = start + 1
	}
	return false
}

// MatchKeywords reports whether haystack contains all words of query, or,
// failing that, any of them when anyFallback is set. An empty query matches.
func MatchKeywords(haystack, query string, anyFallback bool) bool {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return true
	}

	haystack = strings.ToLower(haystack)
	all := true
	for _, kw := range keywords {
		if !strings.Contains(haystack, kw) {
			all = false
			break
		}
	}
	if all || !anyFallback {
		return all
	}

	return ContainsAny(haystack, keywords)
}

// StableID derives a listing id that survives repeated searches: the vendor
// id when there is one, a content hash otherwise.
func StableID(source, vendorID string, content ...string) string {
	prefix := Slug(source)
	if vendorID = strings.TrimSpace(vendorID); vendorID != "" {
		return prefix + ":" + vendorID
	}

	h := sha1.New()
	for _, part := range content {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		h.Write([]byte{'|'})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))[:12]
}

// Slug lowercases s and joins its alphanumeric runs with dashes.
func Slug(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return sb.String()
}

func splitSentences(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '•' || r == ';' || r == '●' || r == '▪'
	})

	var out []string
	for _, f := range fields {
		for _, s := range strings.Split(f, ". ") {
			s = strings.Trim(strings.TrimSpace(s), "-*·. ")
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}
