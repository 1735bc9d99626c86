package httpapi

// CORS configuration (opt-in). If no origins are set, no CORS middleware is added.
var corsAllowedOrigins []string

// SetCORSOrigins configures the origins allowed to read the API.
func SetCORSOrigins(origins []string) {
	corsAllowedOrigins = append([]string(nil), origins...)
}
