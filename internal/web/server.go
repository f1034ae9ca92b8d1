package web

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/ferrianes/foodmarket-backend/internal"
	"github.com/ferrianes/foodmarket-backend/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerDeps are the dependencies for the server.
type ServerDeps struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Tokens      *auth.Tokens
	// StorageFS serves stored files under /storage/. The route is not
	// mounted when it is nil.
	StorageFS fs.FS
	// Registry receives the HTTP metrics. A new registry is used when nil.
	Registry *prometheus.Registry
}

// ServerConfig is the configuration for the server.
type ServerConfig struct {
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

type Server struct {
	deps    *ServerDeps
	cfg     ServerConfig
	router  chi.Router
	decoder *schema.Decoder
	metrics *httpMetrics
}

func NewServer(deps *ServerDeps, cfg ServerConfig) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 4 << 20
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	s := &Server{
		deps:    deps,
		cfg:     cfg,
		router:  chi.NewRouter(),
		decoder: decoder,
		metrics: newHTTPMetrics(reg),
	}

	s.router.Use(
		middleware.RequestID,
		s.logRequests,
		s.metrics.middleware,
		s.recoverPanics,
	)

	// Most API endpoints below are created using the map functions.
	// These return handlers that map between HTTP requests, service calls
	// and the JSON envelope written to the client.

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		s.writeSuccess(w, r, http.StatusOK, "Welcome", map[string]string{
			"version": internal.Build.String(),
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/login", mapBoth(s, "Authenticated", deps.AuthService.Login))
		r.Method(http.MethodPost, "/register", mapBoth(s, "Registered", deps.AuthService.Register))

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Method(http.MethodPost, "/logout", mapResponse(s, "Token Revoked", func(ctx context.Context, id auth.Identity) (bool, error) {
				err := deps.AuthService.Logout(ctx, id)
				if err != nil {
					return false, err
				}
				return true, nil
			}))

			r.Method(http.MethodGet, "/user", mapResponse(s, "Profile Fetched", deps.AuthService.Profile))

			updateProfile := mapAuthed(s, "Profile Updated", deps.AuthService.UpdateProfile)
			r.Method(http.MethodPut, "/user", updateProfile)
			r.Method(http.MethodPost, "/user", updateProfile)

			r.Method(http.MethodPost, "/user/photo", http.HandlerFunc(s.updatePhoto))
		})
	})

	if deps.StorageFS != nil {
		s.router.Handle("/storage/*", http.StripPrefix("/storage/", s.serveStorage(deps.StorageFS)))
	}

	s.router.Method(http.MethodGet, "/metrics", metricsHandler(reg))

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "Not Found", nil)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// updatePhoto reads the multipart upload in the "file" field.
func (s *Server) updatePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.handleError(w, r, auth.ErrUnauthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	upload := auth.Upload{}
	f, hdr, err := r.FormFile("file")
	switch {
	case err == nil:
		defer f.Close()
		upload = auth.Upload{
			Filename: hdr.Filename,
			Size:     hdr.Size,
			Content:  f,
		}
	case isBodyTooLarge(err):
		s.handleError(w, r, err)
		return
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// Left empty, the service reports the missing file.
	default:
		s.handleError(w, r, badRequest(err))
		return
	}

	path, err := s.deps.AuthService.UpdatePhoto(r.Context(), id, upload)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.writeSuccess(w, r, http.StatusOK, "File Successfully Uploaded", []string{path})
}
