package errors

// ErrorCode identifies an application error in API responses
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 200

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1004
	ErrorCode_FORBIDDEN        ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1006

	// Authentication
	ErrorCode_AUTH_INVALID_TOKEN         ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED         ErrorCode = 2001
	ErrorCode_AUTH_INVALID_CREDENTIALS   ErrorCode = 2002
	ErrorCode_AUTH_USER_DISABLED         ErrorCode = 2003
	ErrorCode_AUTH_RATE_LIMITED          ErrorCode = 2004
	ErrorCode_AUTH_NETWORK               ErrorCode = 2005
	ErrorCode_AUTH_USER_ALREADY_EXISTS   ErrorCode = 2006
	ErrorCode_AUTH_OAUTH_FAILED          ErrorCode = 2007
	ErrorCode_AUTH_VERIFICATION_PENDING  ErrorCode = 2008
	ErrorCode_AUTH_WEAK_PASSWORD         ErrorCode = 2009
	ErrorCode_AUTH_INVALID_REFRESH_TOKEN ErrorCode = 2010

	// CRM
	ErrorCode_CRM_FETCH_FAILED   ErrorCode = 3000
	ErrorCode_CRM_PERSIST_FAILED ErrorCode = 3001
	ErrorCode_CRM_NO_IDENTITY    ErrorCode = 3002
	ErrorCode_CRM_SYNC_FAILED    ErrorCode = 3003

	// Profile
	ErrorCode_PROFILE_UPDATE_FAILED ErrorCode = 4000

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED      ErrorCode = 5000
	ErrorCode_INTEGRATION_CACHE_FAILED        ErrorCode = 5001
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED ErrorCode = 5002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                         "HTTP_OK",
	ErrorCode_INTERNAL:                        "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:                "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                       "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:                 "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                       "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:                 "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:              "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:              "AUTH_TOKEN_EXPIRED",
	ErrorCode_AUTH_INVALID_CREDENTIALS:        "AUTH_INVALID_CREDENTIALS",
	ErrorCode_AUTH_USER_DISABLED:              "AUTH_USER_DISABLED",
	ErrorCode_AUTH_RATE_LIMITED:               "AUTH_RATE_LIMITED",
	ErrorCode_AUTH_NETWORK:                    "AUTH_NETWORK",
	ErrorCode_AUTH_USER_ALREADY_EXISTS:        "AUTH_USER_ALREADY_EXISTS",
	ErrorCode_AUTH_OAUTH_FAILED:               "AUTH_OAUTH_FAILED",
	ErrorCode_AUTH_VERIFICATION_PENDING:       "AUTH_VERIFICATION_PENDING",
	ErrorCode_AUTH_WEAK_PASSWORD:              "AUTH_WEAK_PASSWORD",
	ErrorCode_AUTH_INVALID_REFRESH_TOKEN:      "AUTH_INVALID_REFRESH_TOKEN",
	ErrorCode_CRM_FETCH_FAILED:                "CRM_FETCH_FAILED",
	ErrorCode_CRM_PERSIST_FAILED:              "CRM_PERSIST_FAILED",
	ErrorCode_CRM_NO_IDENTITY:                 "CRM_NO_IDENTITY",
	ErrorCode_CRM_SYNC_FAILED:                 "CRM_SYNC_FAILED",
	ErrorCode_PROFILE_UPDATE_FAILED:           "PROFILE_UPDATE_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:      "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:        "INTEGRATION_CACHE_FAILED",
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED: "INTEGRATION_EXTERNAL_API_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
