package constants

const (
	//分頁
	DefaultPagingSize int = 20
	DefaultPaging     int = 1
	MaxPagingSize     int = 100
)

// for api auth
type ContextKey string

const (
	AuthorizationHeaderKey  ContextKey = "authorization"
	AuthorizationTypeBearer ContextKey = "bearer"
	IdentityKey             ContextKey = "identity"
	CartSessionKey          ContextKey = "cart_session"
)

// CartSessionHeader 匿名購物車識別
const CartSessionHeader = "X-Cart-Session"

type ENV string

const (
	Dev  ENV = "dev"
	Stag ENV = "staging"
	Prod ENV = "production"
)

type RequestID string

const (
	RequestIDKey    RequestID = "request_id"
	RequestIDHeader           = "X-Request-ID"
)
