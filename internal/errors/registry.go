package errors

import (
	"slices"
	"sync"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://docs.saascannon.com/errors/"

var (
	registryMu sync.RWMutex

	// registry maps error codes to their templates.
	registry = map[string]ErrorTemplate{
		// Runtime errors (S001-S039)
		"S001": {
			Category: CategoryRuntime,
			Message:  "Saascannon used outside a provider",
			Detail:   "saascannon.Use() was called by a component that is not rendered inside a ready SaascannonProvider.",
			DocURL:   docBase + "S001",
		},
		"S002": {
			Category: CategoryRuntime,
			Message:  "Client construction failed",
			Detail:   "The provider could not create its Saascannon client and stays in the loading state.",
			DocURL:   docBase + "S002",
		},
		"S003": {
			Category: CategoryRuntime,
			Message:  "Auth state could not be loaded",
			Detail:   "The stored session could not be restored. The user is treated as signed out.",
			DocURL:   docBase + "S003",
		},

		// Auth errors (S040-S059)
		"S040": {
			Category: CategoryAuth,
			Message:  "Login callback failed",
			Detail:   "The authorization code could not be exchanged for tokens.",
			DocURL:   docBase + "S040",
		},
		"S041": {
			Category: CategoryAuth,
			Message:  "Unknown login state",
			Detail:   "The callback carried a state that does not belong to a login started by this browser. The login may have expired or been started in another browser.",
			DocURL:   docBase + "S041",
		},
		"S042": {
			Category: CategoryAuth,
			Message:  "Not signed in",
			Detail:   "The operation needs a signed-in user.",
			DocURL:   docBase + "S042",
		},
		"S043": {
			Category: CategoryAuth,
			Message:  "Signing keys could not be fetched",
			Detail:   "The JWKS endpoint of the tenant did not return a usable key set.",
			DocURL:   docBase + "S043",
		},

		// API errors (S060-S079)
		"S060": {
			Category: CategoryAPI,
			Message:  "Saascannon API request failed",
			Detail:   "The tenant API answered with an error status.",
			DocURL:   docBase + "S060",
		},

		// Config errors (S120-S139)
		"S120": {
			Category: CategoryConfig,
			Message:  "Invalid configuration file",
			Detail:   "The configuration file could not be parsed.",
			DocURL:   docBase + "S120",
		},
		"S121": {
			Category: CategoryConfig,
			Message:  "Invalid configuration",
			Detail:   "One or more configuration values are missing or out of range.",
			DocURL:   docBase + "S121",
		},
		"S122": {
			Category: CategoryConfig,
			Message:  "Unsupported configuration format",
			Detail:   "Configuration files must end in .json, .yaml or .yml.",
			DocURL:   docBase + "S122",
		},

		// CLI errors (S140-S159)
		"S140": {
			Category: CategoryCLI,
			Message:  "Command failed",
			DocURL:   docBase + "S140",
		},
		"S141": {
			Category: CategoryCLI,
			Message:  "Configuration file not found",
			Detail:   "No saascannon.json or saascannon.yaml was found in the directory or its parents.",
			DocURL:   docBase + "S141",
		},
		"S142": {
			Category: CategoryCLI,
			Message:  "Server failed",
			Detail:   "The HTTP server stopped with an error.",
			DocURL:   docBase + "S142",
		},
	}
)

// Register adds or replaces an error template.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = template
}

// GetTemplate returns the template for code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// GetAllCodes returns every registered code in order.
func GetAllCodes() []string {
	registryMu.RLock()
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	registryMu.RUnlock()
	slices.Sort(codes)
	return codes
}
