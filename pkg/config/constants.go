package config

const (
	EnvPrefix = "teashop"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "TEASHOP_APP_ENV"
	EnvPort     = "TEASHOP_APP_PORT"
	EnvDBDSN    = "TEASHOP_DB_DSN"
	EnvDBHost   = "TEASHOP_DB_HOST"
	EnvDBUser   = "TEASHOP_DB_USER"
	EnvDBName   = "TEASHOP_DB_NAME"
	EnvRedisURL = "TEASHOP_REDIS_URL"

	EnvJWTSecret = "TEASHOP_JWT_SECRET"
	EnvJWTIssuer = "TEASHOP_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
