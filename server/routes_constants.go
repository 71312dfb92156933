package server

const (
	RouteLogin          = "/api/auth/login"
	RouteLogout         = "/api/auth/logout"
	RouteCheckAuth      = "/api/auth/checkAuth"
	RouteRefresh        = "/api/auth/token/refresh"
	RouteSetPassword    = "/api/auth/setPassword"
	RouteProfile        = "/api/auth/profile"
	RouteChangePassword = "/api/auth/changePassword"

	RouteOidcLogin    = "/api/auth/oidc/login"
	RouteOidcCallback = "/api/auth/oidc/callback"
)
