package icp

import (
	"regexp"
	"sort"
	"strings"
)

// Seniority levels, most senior first. Parsing applies the rules in
// order and takes the first match, so c_level outranks vp even when a
// title matches both ("Chief of Staff, VP Operations").
const (
	SeniorityCLevel        = "c_level"
	SenioritySVP           = "svp"
	SeniorityVP            = "vp"
	SeniorityDirector      = "director"
	SenioritySeniorManager = "senior_manager"
	SeniorityManager       = "manager"
	SenioritySeniorIC      = "senior_ic"
	SeniorityIC            = "ic"
	SeniorityUnknown       = "unknown"
)

type keywordRule struct {
	level string
	re    *regexp.Regexp
}

var seniorityRules = []keywordRule{
	{SeniorityCLevel, regexp.MustCompile(`(?i)\b(chief|ceo|cfo|cto|coo|cio|ciso|cmo|cro|cpo|founder|president|owner)\b`)},
	{SenioritySVP, regexp.MustCompile(`(?i)\b(svp|senior vice president|evp|executive vice president)\b`)},
	{SeniorityVP, regexp.MustCompile(`(?i)\b(vp|vice president)\b`)},
	{SeniorityDirector, regexp.MustCompile(`(?i)\bdirector\b`)},
	{SenioritySeniorManager, regexp.MustCompile(`(?i)\b(senior manager|sr\.? manager|group manager)\b`)},
	{SeniorityManager, regexp.MustCompile(`(?i)\b(manager|head of|team lead|lead)\b`)},
	{SenioritySeniorIC, regexp.MustCompile(`(?i)\b(senior|sr\.?|staff|principal)\b`)},
}

// departmentRules are the default department patterns, checked in order
// after any workspace-supplied custom patterns.
var departmentRules = []keywordRule{
	{"engineering", regexp.MustCompile(`(?i)\b(engineer|engineering|developer|software|devops|sre|architect|qa|infrastructure)\b`)},
	{"product", regexp.MustCompile(`(?i)\b(product|ux|ui|design)\b`)},
	{"data", regexp.MustCompile(`(?i)\b(data|analytics|machine learning|scientist)\b`)},
	{"it", regexp.MustCompile(`(?i)\b(information technology|it|systems|security|network)\b`)},
	{"sales", regexp.MustCompile(`(?i)\b(sales|account executive|business development|revenue)\b`)},
	{"marketing", regexp.MustCompile(`(?i)\b(marketing|growth|demand|brand|communications|content)\b`)},
	{"customer_success", regexp.MustCompile(`(?i)\b(customer success|customer experience|support|implementation|onboarding)\b`)},
	{"finance", regexp.MustCompile(`(?i)\b(finance|financial|accounting|controller|treasury|procurement)\b`)},
	{"operations", regexp.MustCompile(`(?i)\b(operations|ops|supply chain|logistics|facilities)\b`)},
	{"hr", regexp.MustCompile(`(?i)\b(people|human resources|hr|talent|recruiting|recruiter)\b`)},
	{"legal", regexp.MustCompile(`(?i)\b(legal|counsel|compliance|privacy)\b`)},
	{"executive", regexp.MustCompile(`(?i)\b(chief executive|ceo|founder|president|managing director)\b`)},
}

// ParseSeniority derives a seniority level from a raw job title. Empty or
// unparseable titles degrade to ic/unknown rather than erroring.
func ParseSeniority(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return SeniorityUnknown
	}
	for _, rule := range seniorityRules {
		if rule.re.MatchString(t) {
			return rule.level
		}
	}
	return SeniorityIC
}

// ParseDepartment derives a department from a raw job title. Workspace
// custom patterns are checked before the defaults so a workspace can
// claim a keyword for its own taxonomy. Custom patterns are evaluated in
// sorted department order for determinism.
func ParseDepartment(title string, custom map[string][]string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return SeniorityUnknown
	}

	if len(custom) > 0 {
		departments := make([]string, 0, len(custom))
		for dept := range custom {
			departments = append(departments, dept)
		}
		sort.Strings(departments)
		for _, dept := range departments {
			for _, kw := range custom[dept] {
				if kw != "" && strings.Contains(t, strings.ToLower(kw)) {
					return dept
				}
			}
		}
	}

	for _, rule := range departmentRules {
		if rule.re.MatchString(t) {
			return rule.level
		}
	}
	return SeniorityUnknown
}

// PersonaKey joins a seniority and department into the cluster key used
// across persona and committee discovery.
func PersonaKey(seniority, department string) string {
	return seniority + "__" + department
}
