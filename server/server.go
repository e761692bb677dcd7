package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/momstretch/momstretch-server/accounts"
	"github.com/momstretch/momstretch-server/auth"
	"github.com/momstretch/momstretch-server/epds"
	"github.com/momstretch/momstretch-server/history"
	"github.com/momstretch/momstretch-server/internal/config"
)

// Stores bundles the persistence the handlers touch directly. The
// authentication flows go through the auth service instead.
type Stores struct {
	Accounts accounts.Repo
	History  history.Repo
	EPDS     epds.Repo
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	stores Stores
}

func New(config config.Config, authService *auth.Service, stores Stores) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if stores.Accounts == nil || stores.History == nil || stores.EPDS == nil {
		return nil, fmt.Errorf("[Server New] all stores are required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		auth:   authService,
		stores: stores,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
