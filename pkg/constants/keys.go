package constants

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	TenantIDKey  ContextKey = "tenant_id"
	PrincipalKey ContextKey = "principal"
	LoggerKey    ContextKey = "logger"
	RequestIDKey ContextKey = "request_id"
)
