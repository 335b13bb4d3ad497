// Package a11y audits rendered pages for accessibility problems and checks
// keyboard operability. The audit works on serialized HTML, so it runs the
// same against a real browser and the fake storefront.
package a11y

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is one element of the flattened accessibility tree.
type Node struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Element  string `json:"element"`
	Disabled bool   `json:"disabled,omitempty"`
}

// interactiveRoles are roles a keyboard user must be able to reach.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "searchbox": true,
	"combobox": true, "listbox": true, "checkbox": true, "radio": true,
	"menuitem": true, "tab": true,
}

// Interactive reports whether the role is an interactive one.
func Interactive(role string) bool {
	return interactiveRoles[role]
}

// Role returns the ARIA role of an element, explicit or implicit. Elements
// with no meaningful role return "".
func Role(s *goquery.Selection) string {
	if r, ok := s.Attr("role"); ok && strings.TrimSpace(r) != "" {
		return strings.Fields(r)[0]
	}
	switch goquery.NodeName(s) {
	case "button":
		return "button"
	case "a":
		if _, ok := s.Attr("href"); ok {
			return "link"
		}
	case "input":
		switch strings.ToLower(s.AttrOr("type", "text")) {
		case "submit", "button", "reset", "image":
			return "button"
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "search":
			return "searchbox"
		case "hidden":
			return ""
		default:
			return "textbox"
		}
	case "textarea":
		return "textbox"
	case "select":
		return "combobox"
	case "img":
		if alt, ok := s.Attr("alt"); ok && alt == "" {
			return "presentation"
		}
		return "img"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "nav":
		return "navigation"
	case "form":
		return "form"
	case "footer":
		return "contentinfo"
	}
	return ""
}

// Name computes a simplified accessible name: aria-labelledby, aria-label,
// an associated label, then the role's own source (alt, value, content),
// then title and placeholder.
func Name(doc *goquery.Document, s *goquery.Selection) string {
	if ids, ok := s.Attr("aria-labelledby"); ok {
		var parts []string
		for _, id := range strings.Fields(ids) {
			if t := collapse(doc.Find("#" + id).First().Text()); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if v := collapse(s.AttrOr("aria-label", "")); v != "" {
		return v
	}
	if id, ok := s.Attr("id"); ok && id != "" {
		if t := collapse(doc.Find(fmt.Sprintf("label[for=%q]", id)).First().Text()); t != "" {
			return t
		}
	}
	if t := collapse(s.Closest("label").Text()); t != "" && goquery.NodeName(s) != "label" {
		return t
	}

	switch goquery.NodeName(s) {
	case "img":
		if v := collapse(s.AttrOr("alt", "")); v != "" {
			return v
		}
	case "input":
		switch strings.ToLower(s.AttrOr("type", "text")) {
		case "submit":
			return collapse(s.AttrOr("value", "Submit"))
		case "reset":
			return collapse(s.AttrOr("value", "Reset"))
		case "button":
			if v := collapse(s.AttrOr("value", "")); v != "" {
				return v
			}
		case "image":
			if v := collapse(s.AttrOr("alt", "")); v != "" {
				return v
			}
		}
	case "button", "a", "h1", "h2", "h3", "h4", "h5", "h6":
		if t := contentName(s); t != "" {
			return t
		}
	}

	if v := collapse(s.AttrOr("title", "")); v != "" {
		return v
	}
	return collapse(s.AttrOr("placeholder", ""))
}

// contentName is the text of s including the alt text of images inside it.
func contentName(s *goquery.Selection) string {
	var parts []string
	if t := collapse(s.Text()); t != "" {
		parts = append(parts, t)
	}
	s.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
		if alt := collapse(img.AttrOr("alt", "")); alt != "" {
			parts = append(parts, alt)
		}
	})
	return strings.Join(parts, " ")
}

// Describe renders a short, selector-like label for an element.
func Describe(s *goquery.Selection) string {
	var b strings.Builder
	b.WriteString(goquery.NodeName(s))
	if id, ok := s.Attr("id"); ok && id != "" {
		b.WriteString("#" + id)
	} else if class := strings.Fields(s.AttrOr("class", "")); len(class) > 0 {
		b.WriteString("." + class[0])
	}
	if dt, ok := s.Attr("data-test"); ok {
		fmt.Fprintf(&b, "[data-test=%q]", dt)
	}
	return b.String()
}

// Tree flattens the document into nodes that have a role.
func Tree(doc *goquery.Document) []Node {
	var out []Node
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if hidden(s) {
			return
		}
		role := Role(s)
		if role == "" || role == "presentation" || role == "none" {
			return
		}
		_, disabled := s.Attr("disabled")
		out = append(out, Node{
			Role:     role,
			Name:     Name(doc, s),
			Element:  Describe(s),
			Disabled: disabled,
		})
	})
	return out
}

// FindByRole returns the nodes with role whose name matches name; a nil
// name matches any.
func FindByRole(doc *goquery.Document, role string, name *regexp.Regexp) []Node {
	var out []Node
	for _, n := range Tree(doc) {
		if n.Role == role && (name == nil || name.MatchString(n.Name)) {
			out = append(out, n)
		}
	}
	return out
}

func hidden(s *goquery.Selection) bool {
	if s.Closest(`[aria-hidden="true"]`).Length() > 0 {
		return true
	}
	_, ok := s.Attr("hidden")
	return ok
}

var spaceRe = regexp.MustCompile(`\s+`)

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
