package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// Codes used across the module.
const (
	CodeConfigRead     = "V001"
	CodeConfigInvalid  = "V002"
	CodeRoutesRead     = "V003"
	CodeRoutesParse    = "V004"
	CodeRoutesInvalid  = "V005"
	CodeRoutesFormat   = "V006"
	CodeNoMatch        = "V020"
	CodeNavigation     = "V021"
	CodeBackendFailure = "V040"
	CodeWatchFailure   = "V041"
	CodeServeFailure   = "V060"
	CodeInvalidArg     = "V061"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (V001-V019)
	CodeConfigRead: {
		Category: CategoryConfig,
		Message:  "Config file could not be read",
		Detail:   "vnav looks for vnav.yaml, vnav.json or vnav.toml in the working directory unless --config names a file.",
		DocURL:   "https://vnav.dev/docs/errors/V001",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config key holds a value vnav does not accept. Mode must be hash, history or abstract; log_level must be debug, info, warn or error.",
		DocURL:   "https://vnav.dev/docs/errors/V002",
	},
	CodeRoutesRead: {
		Category: CategoryRoutes,
		Message:  "Route table could not be read",
		Detail:   "The file named by routes in the config does not exist or is not readable.",
		DocURL:   "https://vnav.dev/docs/errors/V003",
	},
	CodeRoutesParse: {
		Category: CategoryRoutes,
		Message:  "Route table could not be parsed",
		Detail:   "The route table is not valid YAML, TOML or JSON.",
		DocURL:   "https://vnav.dev/docs/errors/V004",
	},
	CodeRoutesInvalid: {
		Category: CategoryRoutes,
		Message:  "Invalid route table",
		Detail:   "The route table parsed but describes routes that conflict or cannot be matched.",
		DocURL:   "https://vnav.dev/docs/errors/V005",
	},
	CodeRoutesFormat: {
		Category: CategoryRoutes,
		Message:  "Unknown route table format",
		Detail:   "Route tables are read by file extension: .yaml, .yml, .toml or .json.",
		DocURL:   "https://vnav.dev/docs/errors/V006",
	},

	// Navigation (V020-V039)
	CodeNoMatch: {
		Category: CategoryNavigation,
		Message:  "Location could not be resolved",
		Detail:   "The location names an unknown route, misses a required param or redirects in a loop.",
		DocURL:   "https://vnav.dev/docs/errors/V020",
	},
	CodeNavigation: {
		Category: CategoryNavigation,
		Message:  "Navigation failed",
		Detail:   "A guard failed or a lazy view could not be loaded.",
		DocURL:   "https://vnav.dev/docs/errors/V021",
	},

	// Backends (V040-V059)
	CodeBackendFailure: {
		Category: CategoryBackend,
		Message:  "Location backend failed",
		DocURL:   "https://vnav.dev/docs/errors/V040",
	},
	CodeWatchFailure: {
		Category: CategoryBackend,
		Message:  "Route table watcher failed",
		Detail:   "Changes to the route table will not be picked up until vnav restarts.",
		DocURL:   "https://vnav.dev/docs/errors/V041",
	},

	// CLI (V060-V079)
	CodeServeFailure: {
		Category: CategoryCLI,
		Message:  "Devtools server failed",
		DocURL:   "https://vnav.dev/docs/errors/V060",
	},
	CodeInvalidArg: {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		DocURL:   "https://vnav.dev/docs/errors/V061",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
