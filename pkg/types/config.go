package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"30"`

	// Remote record backend
	RecordAPIBaseURL string `envconfig:"RECORD_API_BASE_URL" default:"https://viewfirbackend.onrender.com"`

	// Cognito Auth
	CognitoClientID    string `envconfig:"COGNITO_CLIENT_ID"`
	CountryCallingCode string `envconfig:"COUNTRY_CALLING_CODE" default:"+91"`

	// Session
	CookieName       string `envconfig:"SESSION_COOKIE_NAME" default:"viewfir_session"`
	SessionMaxAgeSec int    `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days

	// Cookie encryption keys (base64 encoded)
	// run `viewfir keygen` to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Uploads
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"` // 10MB
}
