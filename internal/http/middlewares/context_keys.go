package middlewares

// gin context keys shared by the middleware stack.
const (
	CtxRequestID = "request_id"

	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"
	ctxTokenKey  = "auth.token"
	ctxJTIKey    = "auth.jti"
)
