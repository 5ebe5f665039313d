package config

// EnvPrefix namespaces the nested collaborator sections (STOREFRONT_CATALOG_BASE_URL, ...).
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	CartStoreBackendGorm   = "gorm"
	CartStoreBackendRedis  = "redis"
	CartStoreBackendMemory = "memory"
)

const (
	EnvAppEnv           = "STOREFRONT_APP_ENV"
	EnvPort             = "STOREFRONT_APP_PORT"
	EnvDBDSN            = "STOREFRONT_DB_DSN"
	EnvDBDriver         = "STOREFRONT_DB_DRIVER"
	EnvDBHost           = "STOREFRONT_DB_HOST"
	EnvDBUser           = "STOREFRONT_DB_USER"
	EnvDBName           = "STOREFRONT_DB_NAME"
	EnvRedisURL         = "STOREFRONT_REDIS_URL"
	EnvRedisAddr        = "STOREFRONT_REDIS_ADDR"
	EnvCartStoreBackend = "STOREFRONT_CART_STORE_BACKEND"
	EnvCartNamespace    = "STOREFRONT_CART_NAMESPACE"
	EnvCatalogBaseURL   = "STOREFRONT_CATALOG_BASE_URL"
	EnvPricingBaseURL   = "STOREFRONT_PRICING_BASE_URL"
	EnvOrdersBaseURL    = "STOREFRONT_ORDERS_BASE_URL"
	EnvPricingTimeout   = "STOREFRONT_PRICING_TIMEOUT"
	EnvQuoteTimeout     = "STOREFRONT_CHECKOUT_QUOTE_TIMEOUT"
	EnvCORSOrigins      = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
