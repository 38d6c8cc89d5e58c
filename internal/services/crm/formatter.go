package crm

import (
	"strings"
	"unicode"
)

// Canonical tag taxonomy for CRM categorization. Raw tags from the
// session are normalized to these identifiers so reporting stays stable
// across reps and sessions.
var (
	objectionTags = map[string]string{
		"price":      "objection_price",
		"timing":     "objection_timing",
		"features":   "objection_features",
		"competitor": "objection_competitor",
		"authority":  "objection_authority",
		"trust":      "objection_trust",
	}

	competitorTags = map[string]string{
		"salesforce": "competitor_salesforce",
		"hubspot":    "competitor_hubspot",
		"pipedrive":  "competitor_pipedrive",
		"zoho":       "competitor_zoho",
		"dynamics":   "competitor_dynamics",
	}

	nextStepTags = map[string]string{
		"demo":        "next_step_demo",
		"proposal":    "next_step_proposal",
		"follow_up":   "next_step_follow_up",
		"contract":    "next_step_contract",
		"closed_won":  "next_step_closed_won",
		"closed_lost": "next_step_closed_lost",
	}

	painTags = map[string]string{
		"manual":      "pain_manual_data_entry",
		"lost_deals":  "pain_lost_deals",
		"no_insights": "pain_no_insights",
		"slow":        "pain_slow_response",
	}
)

// NormalizeTag maps a raw tag onto the canonical taxonomy; unmatched tags
// become bounded "other_*" identifiers rather than being dropped.
func NormalizeTag(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))

	for keyword, tag := range objectionTags {
		if strings.Contains(lower, keyword) {
			return tag
		}
	}

	switch {
	case containsAny(lower, "hot", "very interested", "ready"):
		return "qualified_hot"
	case containsAny(lower, "interested", "considering", "evaluating"):
		return "qualified_warm"
	case containsAny(lower, "not sure", "maybe", "thinking"):
		return "qualified_cold"
	}

	for keyword, tag := range competitorTags {
		if strings.Contains(lower, keyword) {
			return tag
		}
	}
	for keyword, tag := range nextStepTags {
		if strings.Contains(lower, strings.ReplaceAll(keyword, "_", " ")) || strings.Contains(lower, keyword) {
			return tag
		}
	}
	for keyword, tag := range painTags {
		if strings.Contains(lower, keyword) {
			return tag
		}
	}

	other := strings.ReplaceAll(lower, " ", "_")
	if len(other) > 20 {
		other = other[:20]
	}
	return "other_" + other
}

// NormalizeTags maps a raw tag list onto the canonical taxonomy.
func NormalizeTags(raw []string) []string {
	normalized := make([]string, 0, len(raw))
	for _, tag := range raw {
		normalized = append(normalized, NormalizeTag(tag))
	}
	return normalized
}

// FormatNote renders the professional section layout used for CRM notes.
func FormatNote(summary string, objections, nextSteps []string, commitment string) string {
	var sections []string

	sections = append(sections, "SUMMARY", strings.TrimSpace(summary), "")

	if len(objections) > 0 {
		sections = append(sections, "OBJECTIONS HANDLED")
		for _, obj := range objections {
			sections = append(sections, "• "+obj)
		}
		sections = append(sections, "")
	}

	if len(nextSteps) > 0 {
		sections = append(sections, "NEXT STEPS")
		for _, step := range nextSteps {
			sections = append(sections, "• "+step)
		}
		sections = append(sections, "")
	}

	if commitment != "" {
		sections = append(sections, "COMMITMENT", commitment)
	}

	return strings.Join(sections, "\n")
}

const (
	minTasks = 2
	maxTasks = 7
)

// NormalizeTasks cleans a task list into atomic, actionable items: noise
// dropped, vague one-liners rewritten, and the count bounded to
// [minTasks, maxTasks].
func NormalizeTasks(tasks []string) []string {
	cleaned := make([]string, 0, len(tasks))

	for _, task := range tasks {
		task = strings.TrimSpace(task)
		if len(task) < 5 {
			continue
		}

		if !hasUpperOrDigit(task) {
			task = capitalize(task)
		}

		if isVagueTask(task) {
			task = makeSpecific(task)
		}

		cleaned = append(cleaned, task)
	}

	if len(cleaned) < minTasks {
		cleaned = append(cleaned, "Schedule follow-up call to discuss next steps")
	}
	if len(cleaned) > maxTasks {
		cleaned = cleaned[:maxTasks]
	}
	return cleaned
}

var vagueWords = []string{"follow up", "check in", "touch base", "send stuff", "call", "email"}

func isVagueTask(task string) bool {
	if len(task) >= 30 {
		return false
	}
	return containsAny(strings.ToLower(task), vagueWords...)
}

func makeSpecific(task string) string {
	lower := strings.ToLower(task)
	switch {
	case strings.Contains(lower, "follow up"):
		return "Follow up on proposal discussion - call next Monday at 10am"
	case strings.Contains(lower, "send"):
		return "Send requested materials and pricing information by end of week"
	case strings.Contains(lower, "call"), strings.Contains(lower, "email"):
		return "Contact customer to discuss next steps and timeline"
	}
	return task
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasUpperOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
