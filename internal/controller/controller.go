package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/metrics"
	"github.com/Freeeeeet/therapy_booking/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger проверяет доступность базы для /healthz
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the controller dependencies
type Config struct {
	Identity  *service.IdentityService
	Directory *service.DirectoryService
	Bookings  *service.BookingService

	Metrics        *metrics.BookingMetrics
	MetricsHandler http.Handler // optional
	DB             Pinger       // optional
	Logger         *zap.Logger
}

type Controller struct {
	identity  *service.IdentityService
	directory *service.DirectoryService
	bookings  *service.BookingService

	metrics        *metrics.BookingMetrics
	metricsHandler http.Handler
	db             Pinger
	logger         *zap.Logger
}

func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		identity:       cfg.Identity,
		directory:      cfg.Directory,
		bookings:       cfg.Bookings,
		metrics:        cfg.Metrics,
		metricsHandler: cfg.MetricsHandler,
		db:             cfg.DB,
		logger:         logger,
	}
}

// Routes собирает роутер со всеми эндпоинтами API
func (c *Controller) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(c.requestLogger)
	r.Use(c.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", c.handleHealth)
	if c.metricsHandler != nil {
		r.Handle("/metrics", c.metricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		// Каталог доступен и анонимно
		api.Group(func(public chi.Router) {
			public.Use(c.authenticate(false))
			public.Get("/therapists", c.handleListTherapists)
			public.Get("/therapists/{id}", c.handleGetTherapist)
		})

		// Профиль создаётся по токену, до появления записи в profiles
		api.Post("/profiles", c.handleCreateProfile)

		api.Group(func(private chi.Router) {
			private.Use(c.authenticate(true))

			private.Get("/profiles/me", c.handleGetMyProfile)

			private.Post("/therapists", c.handleRegisterTherapist)
			private.Patch("/therapists/{id}", c.handleUpdateTherapist)
			private.Put("/therapists/{id}/approval", c.handleSetApproval)
			private.Put("/therapists/{id}/active", c.handleSetActive)

			private.Route("/bookings", func(b chi.Router) {
				b.Post("/", c.handleCreateBooking)
				b.Get("/", c.handleListBookings)

				b.Route("/{id}", func(one chi.Router) {
					one.Get("/", c.bookingAction("get_booking", c.bookings.Get))
					one.Post("/confirm", c.bookingAction("confirm", c.bookings.Confirm))
					one.Post("/reject", c.bookingAction("reject", c.bookings.Reject))
					one.Post("/cancel", c.bookingAction("cancel", c.bookings.Cancel))
					one.Post("/complete", c.handleCompleteBooking)
					one.Put("/meeting-link", c.handleSetMeetingLink)
					one.Put("/notes", c.handleUpdateNotes)
					one.Post("/reschedule", c.handleProposeReschedule)
					one.Post("/reschedule/accept", c.bookingAction("reschedule_accept", c.bookings.AcceptReschedule))
					one.Post("/reschedule/decline", c.bookingAction("reschedule_decline", c.bookings.DeclineReschedule))
				})
			})

			private.Route("/admin", func(admin chi.Router) {
				admin.Put("/profiles/{id}/role", c.handleSetRole)
				admin.Put("/bookings/{id}/status", c.handleAdminSetStatus)
				admin.Delete("/bookings/{id}", c.handleAdminDelete)
			})
		})
	})

	return r
}

func (c *Controller) handleHealth(w http.ResponseWriter, r *http.Request) {
	if c.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := c.db.Ping(ctx); err != nil {
			c.logger.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
