package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/arsalanrobotronics/famaserve-admin-backend/audit"
	"github.com/arsalanrobotronics/famaserve-admin-backend/auth"
	"github.com/arsalanrobotronics/famaserve-admin-backend/internal/config"
	"github.com/arsalanrobotronics/famaserve-admin-backend/sessions"
	"github.com/arsalanrobotronics/famaserve-admin-backend/token"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	svc    *auth.Service
	repos  auth.Repos
	audit  audit.Recorder
	log    zerolog.Logger

	oidcProvider *oidc.Provider
	oauth2Config *oauth2.Config
	oidcVerifier *oidc.IDTokenVerifier
}

func New(cfg config.Config, repos auth.Repos, recorder audit.Recorder, logger zerolog.Logger) (*Server, error) {
	signer := token.NewHMACSigner(cfg.GetSigningSecret())
	issuer := token.NewIssuer(repos.Sessions, signer, cfg.GetClientID(),
		token.WithTokenExpiry(cfg.GetAccessTokenTTL(), cfg.GetRefreshTokenTTL()))
	limiter := sessions.NewLimiter(repos.Sessions, cfg.GetSessionLimit(), sessions.EvictionScope(cfg.GetEvictionScope()))

	svc, err := auth.NewService(repos, limiter, issuer, signer,
		auth.WithLockoutPolicy(cfg.GetLockoutThreshold(), cfg.GetLockoutDuration()),
		auth.WithBcryptCost(cfg.GetBcryptCost()))
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create authentication service")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		repos:  repos,
		svc:    svc,
		audit:  recorder,
		log:    logger,
	}
	s.env = cfg.GetEnv()

	// Bootstrap: ensure the default role and admin account exist
	ctx := context.Background()
	if err := s.InitialiseSystem(ctx, cfg); err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to initialise the system")
	}

	if cfg.OidcEnabled() {
		if err := s.initOidc(ctx, cfg); err != nil {
			return nil, errors.Wrap(err, "[Server New] failed to initialise OIDC")
		}
	}

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
