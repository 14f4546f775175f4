package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/attendance"
	"attendance-portal/internal/auth"
	"attendance-portal/internal/httpmiddleware"
	"attendance-portal/internal/identity"
	"attendance-portal/internal/leave"
	"attendance-portal/internal/model"
)

// leaveBases lists the leave route prefixes. /leaveRequest is kept for
// clients of the older API.
var leaveBases = []string{"/leave", "/leaveRequest"}

// HealthCheck reports the reachability of one dependency.
type HealthCheck func(ctx context.Context) bool

// Deps are the collaborators the API is built from.
type Deps struct {
	Identity *identity.Service
	Ledger   *attendance.Ledger
	Leave    *leave.Workflow
	Gate     *auth.Gate

	// Limiter guards the unauthenticated auth endpoints; nil disables it.
	Limiter     httpmiddleware.Limiter
	Health      map[string]HealthCheck
	CORSOrigins []string
	Log         *slog.Logger
}

// Handler serves the HTTP API on top of the domain services.
type Handler struct {
	identity *identity.Service
	ledger   *attendance.Ledger
	leave    *leave.Workflow
	gate     *auth.Gate
	limiter  httpmiddleware.Limiter
	health   map[string]HealthCheck
	origins  []string
	log      *slog.Logger
}

// NewHandler wires a Handler from its dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		identity: d.Identity,
		ledger:   d.Ledger,
		leave:    d.Leave,
		gate:     d.Gate,
		limiter:  d.Limiter,
		health:   d.Health,
		origins:  d.CORSOrigins,
		log:      d.Log,
	}
}

// InitRoutes builds the engine with middleware and every route.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	router.Use(cors.New(h.corsConfig()))
	router.Use(httpmiddleware.SecurityHeaders())
	router.Use(httpmiddleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", h.Healthz)

	api := router.Group("/api")

	public := api.Group("/auth")
	if h.limiter != nil {
		public.Use(httpmiddleware.RateLimit(h.limiter, h.log))
	}
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/admin-login", h.AdminLogin)

	authed := api.Group("", h.gate.Authenticated())
	{
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/auth/profile", h.Profile)
		authed.PUT("/auth/profile", h.UpdateProfile)

		authed.POST("/attendance", h.MarkAttendance)
		authed.GET("/attendance/status", h.AttendanceStatus)
		authed.GET("/attendance/user", h.UserAttendance)

		authed.GET("/auth/user", h.Profile)

		for _, base := range leaveBases {
			authed.POST(base, h.SubmitLeave)
			authed.GET(base+"/user", h.UserLeave)
		}
	}

	admin := api.Group("", h.gate.Authenticated(), h.gate.AdminOnly())
	{
		admin.GET("/attendance", h.AllAttendance)
		admin.PUT("/attendance/:id", h.UpdateAttendance)
		admin.DELETE("/attendance/:id", h.DeleteAttendance)

		for _, base := range leaveBases {
			admin.GET(base, h.AllLeave)
			admin.PUT(base+"/:id", h.DecideLeave)
		}

		admin.GET("/admin/users", h.ListUsers)
		admin.GET("/users/check", h.CheckUser)
	}

	return router
}

func (h *Handler) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(h.origins) == 0 || (len(h.origins) == 1 && h.origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.origins
	}
	return cfg
}

// Healthz runs every health check and answers 503 if any fails.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{}
	status := http.StatusOK
	for name, check := range h.health {
		ok := check(ctx)
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
		}
	}
	if status == http.StatusOK {
		body["status"] = "ok"
	} else {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// fail writes err as {"error": msg}. Store failures are logged with their
// cause; the caller only sees a generic message.
func (h *Handler) fail(c *gin.Context, log *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.Any("error", err))
	} else {
		log.Debug("request rejected", slog.Int("status", status), slog.Any("error", err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func badBody(err error) error {
	return fmt.Errorf("%w: invalid request body: %v", apperr.ErrInvalidInput, err)
}

// caller loads the account behind the request's principal. A token whose
// account is gone is treated as unauthenticated.
func (h *Handler) caller(c *gin.Context) (auth.Principal, model.User, error) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return auth.Principal{}, model.User{}, fmt.Errorf("%w: authentication required", apperr.ErrUnauthenticated)
	}
	user, err := h.identity.Profile(c.Request.Context(), p.SubjectID)
	if errors.Is(err, apperr.ErrNotFound) {
		return auth.Principal{}, model.User{}, fmt.Errorf("%w: account no longer exists", apperr.ErrUnauthenticated)
	}
	if err != nil {
		return auth.Principal{}, model.User{}, err
	}
	return p, user, nil
}

// scopedEmail resolves the email a list query may read. Standard users only
// see their own records; admins may name anyone.
func scopedEmail(p auth.Principal, user model.User, requested string) (string, error) {
	requested = model.NormalizeEmail(requested)
	own := model.NormalizeEmail(user.Email)
	if requested == "" {
		return own, nil
	}
	if requested != own && !p.IsAdmin() {
		return "", fmt.Errorf("%w: cannot read another user's records", apperr.ErrForbidden)
	}
	return requested, nil
}

// ownSnapshot returns the caller's current snapshot, rejecting a supplied one
// that names somebody else.
func ownSnapshot(user model.User, supplied *model.Snapshot) (model.Snapshot, error) {
	snap := user.Snapshot()
	if supplied != nil && supplied.Email != "" && model.NormalizeEmail(supplied.Email) != snap.Email {
		return model.Snapshot{}, fmt.Errorf("%w: cannot act for another user", apperr.ErrForbidden)
	}
	return snap, nil
}
