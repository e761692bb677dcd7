package server

const (
	RouteRoot     = "/"
	RouteRegister = "/register"
	RouteVerify   = "/verify-otp"
	RouteLogin    = "/login"
	// Path kept with the underscore the mobile clients already ship with.
	RouteFederatedLogin = "/login_oauth"
	RouteLoginHistory   = "/login-history"
	RouteProfile        = "/profile"
	RouteEPDS           = "/api/epds"
	RouteEPDSHistory    = "/api/epds/history"
)
