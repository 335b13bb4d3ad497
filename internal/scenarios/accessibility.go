package scenarios

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"

	"github.com/themizzi/storecheck/internal/a11y"
	"github.com/themizzi/storecheck/internal/pages"
)

// auditImpact is the lowest impact that fails an audit.
const auditImpact = a11y.Serious

var loginButtonName = regexp.MustCompile(`(?i)login`)

func audit(e *Env) {
	rep, err := a11y.AuditPage(e.Ctx, e.Runner, auditImpact)
	e.T.Require(err)
	for _, v := range rep.Violations {
		e.T.Debug("violation %s", v)
	}
	assert.NoError(e.T, rep.Err())
}

func accessibilityScenarios(b *builder) {
	b.add("accessibility/audit/login", func(e *Env) {
		e.T.Require(e.Pages.Login.Open(e.Ctx))

		audit(e)

		html, err := e.Runner.Content(e.Ctx)
		e.T.Require(err)
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		e.T.Require(err)
		assert.Len(e.T, a11y.FindByRole(doc, "button", loginButtonName), 1, "login button by role")
		assert.Len(e.T, a11y.FindByRole(doc, "textbox", nil), 2, "text boxes")
	})

	b.add("accessibility/audit/inventory", func(e *Env) {
		browse(e)

		audit(e)
	})

	b.add("accessibility/keyboard-login", func(e *Env) {
		creds := e.Credentials(UserStandard)
		e.T.Require(e.Pages.Login.Open(e.Ctx))

		e.T.Require(a11y.ExpectFocus(e.Ctx, e.Runner, "user-name"))
		e.T.Require(e.Runner.TypeFocused(e.Ctx, creds.Username))
		e.T.Require(a11y.ExpectFocus(e.Ctx, e.Runner, "password"))
		e.T.Require(e.Runner.TypeFocused(e.Ctx, creds.Password))
		e.T.Require(a11y.ExpectFocus(e.Ctx, e.Runner, "login-button"))
		e.T.Require(e.Runner.Press(e.Ctx, "Enter"))

		e.T.Require(e.Runner.WaitPath(e.Ctx, pages.PathInventory))
		e.T.Require(e.Pages.Inventory.WaitLoaded(e.Ctx, 1))
	})
}
