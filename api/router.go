package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	goSeal "github.com/MrEthical07/goSeal"
	"github.com/MrEthical07/goSeal/metrics/export/prometheus"
	"github.com/MrEthical07/goSeal/middleware"
	"github.com/MrEthical07/goSeal/store"
)

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Engine       *goSeal.Engine
	Posts        *store.Posts
	Logger       *zap.Logger
	CORSOrigins  []string
	MaxBodyBytes int64
	// RequestTimeout bounds each request; zero means 30s.
	RequestTimeout time.Duration
}

type handlers struct {
	engine       *goSeal.Engine
	posts        *store.Posts
	logger       *zap.Logger
	validate     *validator.Validate
	maxBodyBytes int64
}

// NewRouter builds the API handler.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodyBytes
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handlers{
		engine:       deps.Engine,
		posts:        deps.Posts,
		logger:       logger,
		validate:     validator.New(),
		maxBodyBytes: maxBody,
	}
	bodyLimit := middleware.WithMaxBodyBytes(maxBody)

	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.Annotate)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.health)
	r.Get("/security", h.securityReport)
	r.Method(http.MethodGet, "/metrics", prometheus.NewExporter(deps.Engine).Handler())

	r.Group(func(r chi.Router) {
		r.Use(throttle(deps.Engine))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/sign-content", h.signContent)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireBearer(deps.Engine))
			r.Get("/", h.listUsers)
			r.Get("/{id}", h.getUser)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.listPosts)
			r.Get("/{id}", h.getPost)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireBearer(deps.Engine))
				r.Use(middleware.RequireContent(deps.Engine, bodyLimit))
				r.Post("/", h.createPost)
				r.Put("/{id}", h.updatePost)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
