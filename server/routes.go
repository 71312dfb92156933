package server

func (s *Server) initRoutes() {
	// Public auth routes
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSetPassword, ChainMiddleware(s.SetPasswordHandler(), s.APIMiddleware()...))

	// Routes behind the bearer gate
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.AuthenticatedAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCheckAuth, ChainMiddleware(s.CheckAuthHandler(), s.AuthenticatedAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileGetHandler(), s.AuthenticatedAPIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteProfile, ChainMiddleware(s.ProfileUpdateHandler(), s.AuthenticatedAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.AuthenticatedAPIMiddleware()...))

	// Federated login, registered only when an upstream provider is configured
	if s.config.OidcEnabled() {
		s.RegisterRouteHandler("GET "+RouteOidcLogin, ChainMiddleware(s.OidcLoginHandler(), s.APIMiddleware()...))
		s.RegisterRouteHandler("GET "+RouteOidcCallback, ChainMiddleware(s.OidcCallbackHandler(), s.APIMiddleware()...))
	}
}
