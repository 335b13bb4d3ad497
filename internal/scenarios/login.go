package scenarios

import (
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/storecheck/internal/pages"
	"github.com/themizzi/storecheck/internal/session"
)

type rejectedLogin struct {
	name string
	user string
	// username and password override the user's credentials when user is
	// empty.
	username string
	password string
	want     string
	// keep checks that the form keeps what was typed once the error is
	// dismissed.
	keep bool
}

var rejectedLogins = []rejectedLogin{
	{name: "locked-out", user: UserLocked, want: "locked out", keep: true},
	{name: "empty-username", password: DefaultPassword, want: "Username is required"},
	{name: "empty-password", username: "test", want: "Password is required"},
	{name: "wrong-password", username: "standard_user", password: "wrong", want: "do not match any user"},
}

func loginScenarios(b *builder) {
	for _, user := range []string{UserStandard, UserGlitch} {
		b.add("login/lands-on-inventory/"+user, func(e *Env) {
			creds := e.Credentials(user)
			login := e.Pages.Login
			e.T.Require(login.Open(e.Ctx))

			e.T.Require(login.Login(e.Ctx, creds.Username, creds.Password))

			e.T.Require(e.Runner.WaitPath(e.Ctx, pages.PathInventory))
			e.T.Require(e.Pages.Inventory.WaitLoaded(e.Ctx, len(e.Catalog)))
			title, err := e.Pages.Inventory.Title(e.Ctx)
			e.T.Require(err)
			assert.Equal(e.T, "Products", title)
		})
	}

	for _, tc := range rejectedLogins {
		b.add("login/rejected/"+tc.name, func(e *Env) {
			username, password := tc.username, tc.password
			if tc.user != "" {
				creds := e.Credentials(tc.user)
				username, password = creds.Username, creds.Password
			}
			login := e.Pages.Login
			e.T.Require(login.Open(e.Ctx))

			e.T.Require(login.Login(e.Ctx, username, password))

			msg, err := login.ErrorMessage(e.Ctx)
			e.T.Require(err)
			assert.Contains(e.T, msg, tc.want)
			path, err := e.Runner.Path(e.Ctx)
			e.T.Require(err)
			assert.Equal(e.T, pages.PathLogin, path)
			for _, f := range []pages.Field{pages.FieldUsername, pages.FieldPassword} {
				marked, err := login.FieldHasError(e.Ctx, f)
				e.T.Require(err)
				assert.True(e.T, marked, "%s field should be marked", f)
			}
			if !tc.keep {
				return
			}

			e.T.Require(login.DismissError(e.Ctx))
			e.T.Require(login.NoErrors(e.Ctx))
			for f, want := range map[pages.Field]string{pages.FieldUsername: username, pages.FieldPassword: password} {
				got, err := login.FieldValue(e.Ctx, f)
				e.T.Require(err)
				assert.Equal(e.T, want, got, "%s field value", f)
			}
		})
	}

	b.add("login/direct-inventory-access", func(e *Env) {
		e.T.Require(e.Runner.Navigate(e.Ctx, pages.PathInventory))

		e.T.Require(e.Runner.WaitPath(e.Ctx, pages.PathLogin))
		msg, err := e.Pages.Login.ErrorMessage(e.Ctx)
		e.T.Require(err)
		assert.Contains(e.T, msg, fmt.Sprintf("You can only access '%s' when you are logged in", pages.PathInventory))
	})

	b.add("login/logout", func(e *Env) {
		key := e.Login(PurposeLogout)
		defer e.Sessions.Invalidate(key)

		e.T.Require(e.Pages.Menu.Logout(e.Ctx))

		e.T.Require(e.Runner.Navigate(e.Ctx, pages.PathInventory))
		e.T.Require(e.Runner.WaitPath(e.Ctx, pages.PathLogin))
		msg, err := e.Pages.Login.ErrorMessage(e.Ctx)
		e.T.Require(err)
		require.True(e.T, strings.HasPrefix(msg, "Epic sadface:"), "unexpected banner %q", msg)
		assert.Contains(e.T, msg, "when you are logged in")
	})

	b.add("session/idempotent-validation", func(e *Env) {
		key := e.Login(PurposeBrowse)

		again, err := e.Sessions.Get(e.Ctx, e.Runner, key)
		e.T.Require(err)
		e.T.Require(session.Validate(e.Ctx, e.Runner))
		e.T.Require(session.Validate(e.Ctx, e.Runner))

		assert.False(e.T, again.Created, "second Get must restore, not log in")
		path, err := e.Runner.Path(e.Ctx)
		e.T.Require(err)
		assert.Equal(e.T, pages.PathInventory, path)
	})
}
