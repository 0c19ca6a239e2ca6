package config

const EnvPrefix = "RELACKS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "RELACKS_APP_ENV"
	EnvPort   = "RELACKS_APP_PORT"

	EnvDBDSN  = "RELACKS_DB_DSN"
	EnvDBHost = "RELACKS_DB_HOST"
	EnvDBUser = "RELACKS_DB_USER"
	EnvDBName = "RELACKS_DB_NAME"

	EnvRedisURL = "RELACKS_REDIS_URL"

	EnvJWTSecret  = "RELACKS_JWT_SECRET"
	EnvJWTIssuer  = "RELACKS_JWT_ISSUER"
	EnvJWTExpMins = "RELACKS_JWT_EXPIRATION_MINUTES"

	EnvAdminEmail        = "RELACKS_ADMIN_EMAIL"
	EnvAdminPasswordHash = "RELACKS_ADMIN_PASSWORD_HASH"

	EnvDiscountMinNights    = "RELACKS_DISCOUNT_MIN_NIGHTS"
	EnvDiscountPercent      = "RELACKS_DISCOUNT_PERCENT"
	EnvManualQuoteMinNights = "RELACKS_MANUAL_QUOTE_MIN_NIGHTS"
	EnvAvailabilityMaxDays  = "RELACKS_AVAILABILITY_MAX_DAYS"
	EnvBookingMaxNights     = "RELACKS_BOOKING_MAX_NIGHTS"

	EnvPubSubBookingsTopic = "RELACKS_PUBSUB_BOOKINGS_TOPIC"

	EnvOutboxRetentionDays   = "RELACKS_OUTBOX_RETENTION_DAYS"
	EnvDLQRetentionDays      = "RELACKS_OUTBOX_DLQ_RETENTION_DAYS"
	EnvStalePendingGraceDays = "RELACKS_STALE_PENDING_GRACE_DAYS"
)
