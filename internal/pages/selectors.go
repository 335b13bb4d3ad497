package pages

// Raw selectors live here only; page objects compose them into locators.

// Login form selectors.
var (
	// SelectorUsername selects the username input.
	SelectorUsername = `[data-test="username"]`

	// SelectorPassword selects the password input.
	SelectorPassword = `[data-test="password"]`

	// SelectorLoginButton selects the submit button.
	SelectorLoginButton = `[data-test="login-button"]`

	// SelectorError selects the error banner on the login and checkout forms.
	SelectorError = `[data-test="error"]`

	// SelectorErrorClose selects the banner's close button.
	SelectorErrorClose = SelectorError + ` button.error-button`
)

// Header and side menu selectors.
var (
	SelectorMenuButton = "#react-burger-menu-btn"
	SelectorMenu       = ".bm-menu"
	SelectorAllItems   = "#inventory_sidebar_link"
	SelectorLogout     = "#logout_sidebar_link"
	SelectorReset      = "#reset_sidebar_link"
	SelectorCartLink   = ".shopping_cart_link"
	SelectorCartBadge  = ".shopping_cart_badge"
	SelectorTitle      = ".header_secondary_container .title"
)

// Inventory list selectors.
var (
	// SelectorInventoryList selects the product list container.
	SelectorInventoryList = ".inventory_list"

	// SelectorInventoryItem selects one product card; it carries data-itemid.
	SelectorInventoryItem = ".inventory_item"

	// AttrItemID is the product id attribute of an inventory card.
	AttrItemID = "data-itemid"

	SelectorItemName      = ".inventory_item_name"
	SelectorItemDesc      = ".inventory_item_desc"
	SelectorItemPrice     = ".inventory_item_price"
	SelectorItemTitleLink = ".inventory_item_label a"
	SelectorItemImage     = "img.inventory_item_img"

	// SelectorSort selects the sort dropdown.
	SelectorSort = `select[data-test="product_sort_container"]`

	// SelectorAddToCart and SelectorRemove select a card's cart toggle in
	// its two states.
	SelectorAddToCart = `button[data-test^="add-to-cart"]`
	SelectorRemove    = `button[data-test^="remove"]`
)

// Item detail selectors.
var (
	SelectorDetails        = "#inventory_item_container .inventory_details"
	SelectorDetailsName    = ".inventory_details_name.large_size"
	SelectorDetailsDesc    = ".inventory_details_desc"
	SelectorDetailsPrice   = ".inventory_details_price"
	SelectorDetailsImage   = "img.inventory_details_img"
	SelectorBackToProducts = `[data-test="back-to-products"]`
)

// Cart selectors.
var (
	SelectorCartList         = ".cart_list"
	SelectorCartItem         = ".cart_item"
	SelectorCartQuantity     = ".cart_quantity"
	SelectorCheckout         = `[data-test="checkout"]`
	SelectorContinueShopping = `[data-test="continue-shopping"]`
)

// Checkout selectors.
var (
	SelectorFirstName      = `[data-test="firstName"]`
	SelectorLastName       = `[data-test="lastName"]`
	SelectorPostalCode     = `[data-test="postalCode"]`
	SelectorContinue       = `[data-test="continue"]`
	SelectorCancel         = `[data-test="cancel"]`
	SelectorSubtotal       = ".summary_subtotal_label"
	SelectorTax            = ".summary_tax_label"
	SelectorTotal          = ".summary_total_label"
	SelectorFinish         = `[data-test="finish"]`
	SelectorCompleteHeader = "h2.complete-header"
	SelectorCompleteImage  = "#checkout_complete_container img"
)
