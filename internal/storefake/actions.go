package storefake

import (
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/themizzi/storecheck/internal/cartstate"
	"github.com/themizzi/storecheck/internal/driver"
)

// Login banner messages
const (
	MsgUsernameRequired = "Epic sadface: Username is required"
	MsgPasswordRequired = "Epic sadface: Password is required"
	MsgLockedOut        = "Epic sadface: Sorry, this user has been locked out."
	MsgNoMatch          = "Epic sadface: Username and password do not match any user in this service"
)

// Checkout form messages
const (
	MsgFirstNameRequired  = "Error: First Name is required"
	MsgLastNameRequired   = "Error: Last Name is required"
	MsgPostalCodeRequired = "Error: Postal Code is required"
)

var itemLinkRe = regexp.MustCompile(`^item-(\d+)-(?:title|img)-link$`)

// activate runs the action of el or its nearest ancestor that has one.
func (b *Browser) activate(el *goquery.Selection) error {
	if editable(el) || goquery.NodeName(el) == "select" {
		return nil
	}
	for s := el; s.Length() > 0; s = s.Parent() {
		action, ok := s.Attr("data-test")
		if !ok {
			continue
		}
		if b.act(action) {
			return nil
		}
	}
	return nil
}

// act performs the storefront behaviour bound to a data-test value and
// reports whether there was one.
func (b *Browser) act(action string) bool {
	switch action {
	case "login-button":
		b.submitLogin()
	case "error-button":
		b.loginError = ""
		b.checkoutError = ""
		b.invalidate()
	case "open-menu":
		b.menuOpen = true
		b.invalidate()
	case "close-menu":
		b.menuOpen = false
		b.invalidate()
	case "inventory-sidebar-link", "continue-shopping", "back-to-products":
		b.loadPath(PathInventory)
	case "about-sidebar-link":
	case "logout-sidebar-link":
		delete(b.cookies, SessionCookie)
		b.loadPath(PathLogin)
	case "reset-sidebar-link":
		delete(b.storage, cartstate.Key)
		b.invalidate()
	case "shopping-cart-link":
		b.loadPath(PathCart)
	case "checkout":
		b.loadPath(PathCheckoutInfo)
	case "cancel":
		if b.url.Path == PathCheckoutInfo {
			b.loadPath(PathCart)
		} else {
			b.loadPath(PathInventory)
		}
	case "continue":
		b.submitCheckoutInfo()
	case "finish":
		delete(b.storage, cartstate.Key)
		b.store.orders.Add(1)
		b.loadPath(PathCheckoutComplete)
	default:
		switch {
		case strings.HasPrefix(action, "add-to-cart-"):
			return b.updateCart(strings.TrimPrefix(action, "add-to-cart-"), true)
		case strings.HasPrefix(action, "remove-"):
			return b.updateCart(strings.TrimPrefix(action, "remove-"), false)
		}
		if m := itemLinkRe.FindStringSubmatch(action); m != nil {
			b.loadPath(PathItem + "?id=" + m[1])
			return true
		}
		return false
	}
	return true
}

// submitForm handles Enter in a text field.
func (b *Browser) submitForm(el *goquery.Selection) error {
	switch el.AttrOr("id", "") {
	case "user-name", "password":
		b.submitLogin()
	case "first-name", "last-name", "postal-code":
		b.submitCheckoutInfo()
	}
	return nil
}

func (b *Browser) submitLogin() {
	if b.url == nil || b.url.Path != PathLogin {
		return
	}
	user, password := b.values["user-name"], b.values["password"]
	var msg string
	switch {
	case user == "":
		msg = MsgUsernameRequired
	case password == "":
		msg = MsgPasswordRequired
	case !b.store.authenticate(user, password):
		msg = MsgNoMatch
	case b.store.locked[user]:
		msg = MsgLockedOut
	}
	if msg != "" {
		b.loginError = msg
		b.invalidate()
		return
	}

	b.cookies[SessionCookie] = driver.Cookie{
		Name:   SessionCookie,
		Value:  user,
		Domain: b.store.base.Hostname(),
		Path:   "/",
	}
	b.store.logins.Add(1)
	b.loadPath(PathInventory)
	if user == GlitchUser {
		b.pending = b.store.glitch
	}
}

func (b *Browser) submitCheckoutInfo() {
	if b.url.Path != PathCheckoutInfo {
		return
	}
	var msg string
	switch {
	case b.values["first-name"] == "":
		msg = MsgFirstNameRequired
	case b.values["last-name"] == "":
		msg = MsgLastNameRequired
	case b.values["postal-code"] == "":
		msg = MsgPostalCodeRequired
	}
	if msg != "" {
		b.checkoutError = msg
		b.invalidate()
		return
	}
	b.loadPath(PathCheckoutOverview)
}

func (b *Browser) updateCart(productSlug string, add bool) bool {
	p, ok := b.store.bySlug[productSlug]
	if !ok {
		return false
	}
	ids := b.cartIDs()
	i := slices.Index(ids, p.ID)
	switch {
	case add && i < 0:
		ids = append(ids, p.ID)
	case !add && i >= 0:
		ids = slices.Delete(ids, i, i+1)
	}
	b.storage[cartstate.Key] = cartstate.Encode(ids)
	b.invalidate()
	return true
}
