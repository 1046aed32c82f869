package config

const (
	EnvPrefix = "AYIMOLOU"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "AYIMOLOU_APP_ENV"
	EnvPort     = "AYIMOLOU_APP_PORT"
	EnvLogLvl   = "AYIMOLOU_LOG_LEVEL"
	EnvDBDSN    = "AYIMOLOU_DB_DSN"
	EnvDBDrv    = "AYIMOLOU_DB_DRIVER"
	EnvDBHost   = "AYIMOLOU_DB_HOST"
	EnvDBUser   = "AYIMOLOU_DB_USER"
	EnvDBName   = "AYIMOLOU_DB_NAME"
	EnvDBPass   = "AYIMOLOU_DB_PASSWORD"
	EnvDBPort   = "AYIMOLOU_DB_PORT"
	EnvRedisURL = "AYIMOLOU_REDIS_URL"

	EnvJWTSecret  = "AYIMOLOU_JWT_SECRET"
	EnvJWTIssuer  = "AYIMOLOU_JWT_ISSUER"
	EnvJWTExpMins = "AYIMOLOU_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "AYIMOLOU_GCP_PROJECT_ID"

	EnvPubSubNotificationTopic = "AYIMOLOU_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "AYIMOLOU_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubPushTopic         = "AYIMOLOU_PUBSUB_PUSH_TOPIC"

	EnvDispatchMinInterval     = "AYIMOLOU_DISPATCH_LOCATION_MIN_INTERVAL"
	EnvDispatchMinDistance     = "AYIMOLOU_DISPATCH_LOCATION_MIN_DISTANCE_METERS"
	EnvDispatchProximityRadius = "AYIMOLOU_DISPATCH_PROXIMITY_RADIUS_METERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
