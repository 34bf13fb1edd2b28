package http

import (
	"net/http"

	"readlater/internal/auth"
	"readlater/internal/config"
	"readlater/internal/content"
	"readlater/internal/http/handler"
	mw "readlater/internal/http/middleware"
	"readlater/internal/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, log *zap.Logger) http.Handler {
	log = logger.OrNop(log)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(log.Named("http")))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials, log))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	requireAuth := auth.RequireAuth(jwtSvc, handler.Unauthorized)

	me := &handler.MeHandler{}
	r.With(requireAuth).Get("/me", me.Me)

	tags := content.NewTagRegistry(db, log)
	items := content.NewItemStore(db, log)
	links := content.NewAssociations(db, tags, log)
	itemH := &handler.ItemHandler{
		Items:  items,
		Links:  links,
		Ingest: content.NewIngest(db, items, links),
		Query:  content.NewQuery(db),
		Log:    log,
	}
	tagH := &handler.TagHandler{Tags: tags, Links: links, Log: log}

	r.Route("/items", func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/", itemH.Create)
		r.Get("/", itemH.List)
		r.Get("/last", itemH.Last)
		r.Get("/random", itemH.Random)
		r.Get("/stats", itemH.Stats)

		r.Get("/{id}", itemH.Get)
		r.Delete("/{id}", itemH.Delete)
		r.Post("/{id}/processed", itemH.MarkProcessed)

		r.Get("/{id}/tags", itemH.Tags)
		r.Put("/{id}/tags/{tagID}", itemH.AttachTag)
		r.Delete("/{id}/tags/{tagID}", itemH.DetachTag)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", tagH.List)
		r.Post("/", tagH.Create)
		r.Get("/{id}", tagH.Get)
		r.Patch("/{id}", tagH.Rename)
		r.Delete("/{id}", tagH.Delete)
		r.Get("/{id}/items", tagH.Items)
	})

	return r
}
