package config

// EnvPrefix is passed to envconfig; individual fields carry the full
// LOKAPASAR_ names so the prefix stays informational.
const EnvPrefix = "lokapasar"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "LOKAPASAR_APP_ENV"

	EnvDBDSN  = "LOKAPASAR_DB_DSN"
	EnvDBHost = "LOKAPASAR_DB_HOST"
	EnvDBUser = "LOKAPASAR_DB_USER"
	EnvDBName = "LOKAPASAR_DB_NAME"
)
