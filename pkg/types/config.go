package types

type Config struct {
	Environment      string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort       uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	ReadTimeoutSec   uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec  uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`
	PublicBaseURL    string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// S3 Storage
	S3BucketName       string `envconfig:"S3_BUCKET_NAME" default:"beneficiary-photos"`
	PhotoURLTTLMinutes int    `envconfig:"PHOTO_URL_TTL_MINUTES" default:"15"`
	MaxPhotoSizeBytes  int64  `envconfig:"MAX_PHOTO_SIZE_BYTES" default:"5242880"` // 5 MiB

	// Stripe
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	DonationCurrency    string `envconfig:"DONATION_CURRENCY" default:"cop"`

	// Auth Configuration
	CookieName       string `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`
	SessionMaxAgeSec int    `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
