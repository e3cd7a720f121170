package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "TIX"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside envconfig tags (tests, docs).
const (
	EnvAppEnv   = "TIX_APP_ENV"
	EnvPort     = "TIX_APP_PORT"
	EnvDBDSN    = "TIX_DB_DSN"
	EnvDBHost   = "TIX_DB_HOST"
	EnvDBUser   = "TIX_DB_USER"
	EnvDBName   = "TIX_DB_NAME"
	EnvRedisURL = "TIX_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
