package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "AGART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AGART_DB_DSN"
	EnvDBHost = "AGART_DB_HOST"
	EnvDBUser = "AGART_DB_USER"
	EnvDBName = "AGART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
