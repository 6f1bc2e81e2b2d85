package errors

// Error codes returned to clients in the "code" field.
const (
	CodeAuthRequired    = "AUTH_REQUIRED"
	CodeAuthFailed      = "AUTH_FAILED"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeMissingEntries  = "MISSING_ENTRIES"
	CodeInvalidEntries  = "INVALID_ENTRIES"
	CodeTooManyEntries  = "TOO_MANY_ENTRIES"
	CodeEmptyContent    = "EMPTY_CONTENT"
	CodeRateLimit       = "RATE_LIMIT"
	CodeOpenAIError     = "OPENAI_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeInternalError   = "INTERNAL_ERROR"
)

// DefaultRetryAfterSeconds is suggested to clients when the provider rate limits.
const DefaultRetryAfterSeconds = 60
