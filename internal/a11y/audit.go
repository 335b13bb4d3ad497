package a11y

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/themizzi/storecheck/internal/driver"
)

// Impact ranks how badly a violation affects users.
type Impact int

// Impact levels
const (
	Minor Impact = iota
	Moderate
	Serious
	Critical
)

func (i Impact) String() string {
	switch i {
	case Critical:
		return "critical"
	case Serious:
		return "serious"
	case Moderate:
		return "moderate"
	default:
		return "minor"
	}
}

// ParseImpact accepts the names String returns.
func ParseImpact(s string) (Impact, error) {
	for i := Minor; i <= Critical; i++ {
		if strings.EqualFold(s, i.String()) {
			return i, nil
		}
	}
	return Minor, fmt.Errorf("unknown impact %q", s)
}

// Violation is one element breaking one rule.
type Violation struct {
	Rule    string
	Impact  Impact
	Element string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s (%s)", v.Impact, v.Rule, v.Message, v.Element)
}

// Rule checks a document.
type Rule struct {
	ID     string
	Impact Impact
	Check  func(doc *goquery.Document) []string
}

// Rules is the audit's rule set. Check returns one message per offending
// element, already prefixed with the element description.
var Rules = []Rule{
	{ID: "html-has-lang", Impact: Serious, Check: checkLang},
	{ID: "document-title", Impact: Serious, Check: checkTitle},
	{ID: "image-alt", Impact: Critical, Check: checkImageAlt},
	{ID: "label", Impact: Critical, Check: checkLabels},
	{ID: "button-name", Impact: Critical, Check: namedRole("button")},
	{ID: "link-name", Impact: Serious, Check: namedRole("link")},
	{ID: "duplicate-id", Impact: Minor, Check: checkDuplicateIDs},
	{ID: "aria-hidden-focus", Impact: Serious, Check: checkHiddenFocus},
}

// Report is the outcome of an audit.
type Report struct {
	Violations []Violation
}

// Err summarizes the violations, or returns nil when there are none.
func (r Report) Err() error {
	if len(r.Violations) == 0 {
		return nil
	}
	lines := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		lines[i] = v.String()
	}
	return fmt.Errorf("%d accessibility violations:\n  %s", len(r.Violations), strings.Join(lines, "\n  "))
}

// Audit runs every rule against html and keeps violations at or above min.
func Audit(html string, min Impact) (Report, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Report{}, fmt.Errorf("failed to parse page: %w", err)
	}
	var rep Report
	for _, rule := range Rules {
		if rule.Impact < min {
			continue
		}
		for _, msg := range rule.Check(doc) {
			el, text, _ := strings.Cut(msg, ": ")
			rep.Violations = append(rep.Violations, Violation{Rule: rule.ID, Impact: rule.Impact, Element: el, Message: text})
		}
	}
	sort.SliceStable(rep.Violations, func(i, j int) bool {
		return rep.Violations[i].Impact > rep.Violations[j].Impact
	})
	return rep, nil
}

// AuditPage audits the page currently shown behind r.
func AuditPage(ctx context.Context, r *driver.Runner, min Impact) (Report, error) {
	html, err := r.Content(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read page content: %w", err)
	}
	return Audit(html, min)
}

func checkLang(doc *goquery.Document) []string {
	if strings.TrimSpace(doc.Find("html").AttrOr("lang", "")) == "" {
		return []string{"html: document has no lang attribute"}
	}
	return nil
}

func checkTitle(doc *goquery.Document) []string {
	if collapse(doc.Find("head title").First().Text()) == "" {
		return []string{"title: document has no title"}
	}
	return nil
}

func checkImageAlt(doc *goquery.Document) []string {
	var out []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if r := s.AttrOr("role", ""); r == "presentation" || r == "none" {
			return
		}
		if _, ok := s.Attr("alt"); !ok && Name(doc, s) == "" {
			out = append(out, Describe(s)+": image has no alt text")
		}
	})
	return out
}

func checkLabels(doc *goquery.Document) []string {
	var out []string
	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		if hidden(s) {
			return
		}
		switch Role(s) {
		case "textbox", "searchbox", "combobox", "listbox", "checkbox", "radio":
		default:
			return
		}
		if Name(doc, s) == "" {
			out = append(out, Describe(s)+": form element has no label")
		}
	})
	return out
}

func namedRole(role string) func(doc *goquery.Document) []string {
	return func(doc *goquery.Document) []string {
		var out []string
		doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
			if hidden(s) || Role(s) != role {
				return
			}
			if Name(doc, s) == "" {
				out = append(out, fmt.Sprintf("%s: %s has no accessible name", Describe(s), role))
			}
		})
		return out
	}
}

func checkDuplicateIDs(doc *goquery.Document) []string {
	seen := map[string]int{}
	var order []string
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id == "" {
			return
		}
		if seen[id] == 0 {
			order = append(order, id)
		}
		seen[id]++
	})
	var out []string
	for _, id := range order {
		if seen[id] > 1 {
			out = append(out, fmt.Sprintf("#%s: id is used %d times", id, seen[id]))
		}
	}
	return out
}

func checkHiddenFocus(doc *goquery.Document) []string {
	var out []string
	doc.Find(`[aria-hidden="true"]`).Find("a[href], button, input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("tabindex", "") == "-1" {
			return
		}
		if _, ok := s.Attr("disabled"); ok {
			return
		}
		out = append(out, Describe(s)+": focusable element inside aria-hidden content")
	})
	return out
}
