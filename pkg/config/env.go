package config

const (
	EnvPrefix = "CATALOG"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv   = "CATALOG_APP_ENV"
	EnvPort     = "CATALOG_APP_PORT"
	EnvLogLevel = "CATALOG_LOG_LEVEL"

	EnvDBDSN    = "CATALOG_DB_DSN"
	EnvDBDriver = "CATALOG_DB_DRIVER"
	EnvDBHost   = "CATALOG_DB_HOST"
	EnvDBUser   = "CATALOG_DB_USER"
	EnvDBName   = "CATALOG_DB_NAME"

	EnvRedisURL = "CATALOG_REDIS_URL"

	EnvJWTSecret  = "CATALOG_JWT_SECRET"
	EnvJWTIssuer  = "CATALOG_JWT_ISSUER"
	EnvJWTExpMins = "CATALOG_JWT_EXPIRATION_MINUTES"

	EnvArtifactsRoot         = "CATALOG_ARTIFACTS_ROOT"
	EnvArtifactsPublicPrefix = "CATALOG_ARTIFACTS_PUBLIC_PREFIX"
	EnvArtifactsAllowedExt   = "CATALOG_ARTIFACTS_ALLOWED_EXTENSIONS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
