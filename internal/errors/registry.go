package errors

import "sort"

// Codes without a router.DefectCode counterpart.
const (
	CodeRedirectLoop  = "R101"
	CodeLoadFailed    = "R102"
	CodeNoMatch       = "R103"
	CodeConfigInvalid = "C001"
	CodeConfigLoad    = "C002"
	CodeLoaderBackend = "C003"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	Example    string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Table construction (R001-R099). Codes match router.DefectCode.

	"R001": {
		Category:   CategoryTable,
		Message:    "Duplicate sibling route",
		Detail:     "Two routes under the same parent match exactly the same paths, so the second one can never be reached.",
		Suggestion: "Remove one of the entries or give them different static segments.",
	},
	"R002": {
		Category:   CategoryTable,
		Message:    "Route has no target",
		Detail:     "Every route needs either a component or a redirect.",
		Suggestion: "Add a Component or a Redirect to the entry.",
		Example:    `{Path: "/login", Component: reg.Ref("pages/LoginPage")}`,
	},
	"R003": {
		Category:   CategoryTable,
		Message:    "Route has both a component and a redirect",
		Detail:     "A redirect entry is never mounted, so its component would be ignored.",
		Suggestion: "Keep only one target.",
	},
	"R004": {
		Category: CategoryTable,
		Message:  "Invalid route pattern",
		Detail:   "Patterns are made of static segments and :name parameters. Wildcards and empty parameter names are not supported.",
		Example:  `{Path: "notice/:id", Component: reg.Ref("components/admin/NoticeDetail"), Props: true}`,
	},
	"R005": {
		Category: CategoryTable,
		Message:  "Invalid redirect target",
		Detail:   "Redirect targets must be absolute in-app paths, and may only use parameters captured by the redirecting route.",
		Example:  `{Path: "/mypage", Redirect: "/mypage/post"}`,
	},
	"R006": {
		Category: CategoryTable,
		Message:  "Duplicate route name",
		Detail:   "Route names are used to build links and must be unique across the table.",
	},
	"R007": {
		Category:   CategoryTable,
		Message:    "Child route outside its parent",
		Detail:     "An absolute child path does not start with its parent's path. It resolves at its own path with its ancestors mounted around it, which is rarely what the URL suggests.",
		Suggestion: "Write the child path relative to the parent, or move it to the top level.",
	},

	// Resolution and navigation (R101-R199).

	"R101": {
		Category:   CategoryResolve,
		Message:    "Redirect loop",
		Detail:     "Following redirects revisited a path or exceeded the hop limit. The navigation is treated as not found.",
		Suggestion: "Check the redirect targets along the trail.",
	},
	"R102": {
		Category: CategoryNavigation,
		Message:  "Component failed to load",
		Detail:   "A lazy component could not be fetched. The previous view stays mounted and navigating again retries the load.",
	},
	"R103": {
		Category: CategoryResolve,
		Message:  "No route matches",
		Detail:   "The path does not match any entry in the route table.",
	},

	// Configuration (C001-C099).

	"C001": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"C002": {
		Category:   CategoryConfig,
		Message:    "Configuration file could not be read",
		Suggestion: "Pass --config with the path to routetable.toml.",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Component loader could not be created",
		Example:  "[loader]\nbackend = \"fs\"\ndir = \"dist/chunks\"",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
