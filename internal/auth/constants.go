package auth

// AuthCookieName is the name of the httpOnly cookie used for browser session auth.
// This is shared across HTTP middleware and WebSocket upgrade auth.
const AuthCookieName = "bjt_token"
