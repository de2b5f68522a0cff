package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names.
const EnvPrefix = "ORDERDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Database drivers accepted by DBConfig.Driver.
const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// Environment variable names referenced outside struct tags (tests, error text).
const (
	EnvAppEnv     = "ORDERDESK_APP_ENV"
	EnvPort       = "ORDERDESK_APP_PORT"
	EnvDBDSN      = "ORDERDESK_DB_DSN"
	EnvDBHost     = "ORDERDESK_DB_HOST"
	EnvDBUser     = "ORDERDESK_DB_USER"
	EnvDBName     = "ORDERDESK_DB_NAME"
	EnvRedisURL   = "ORDERDESK_REDIS_URL"
	EnvJWTSecret  = "ORDERDESK_JWT_SECRET"
	EnvJWTIssuer  = "ORDERDESK_JWT_ISSUER"
	EnvJWTExpMins = "ORDERDESK_JWT_EXPIRATION_MINUTES"
	EnvVATRate    = "ORDERDESK_VAT_RATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
