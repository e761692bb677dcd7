package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteRoot, s.HealthHandler())

	// Registration and login
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerify, ChainMiddleware(s.VerifyOTPHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteFederatedLogin, ChainMiddleware(s.FederatedLoginHandler(), s.APIMiddleware()...))

	// Authenticated account routes
	s.RegisterRouteHandler("GET "+RouteLoginHistory, ChainMiddleware(s.LoginHistoryHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileGetHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteHandler("PUT "+RouteProfile, ChainMiddleware(s.ProfileUpdateHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteHandler("DELETE "+RouteProfile, ChainMiddleware(s.ProfileDeleteHandler(), s.APIMiddleware(s.RequireAuth)...))

	// Screening
	s.RegisterRouteHandler("POST "+RouteEPDS, ChainMiddleware(s.EPDSSubmitHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteHandler("GET "+RouteEPDSHistory, ChainMiddleware(s.EPDSHistoryHandler(), s.APIMiddleware(s.RequireAuth)...))
}

// HealthHandler answers load balancer probes, no api key needed.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"app":    s.config.GetAppName(),
			"status": "ok",
		})
	}
}
