package config

const (
	EnvPrefix = "NETDECKER"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "NETDECKER_APP_ENV"
	EnvPort     = "NETDECKER_APP_PORT"
	EnvDBDSN    = "NETDECKER_DB_DSN"
	EnvDBDriver = "NETDECKER_DB_DRIVER"
	EnvRedisURL = "NETDECKER_REDIS_URL"
)
