package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/campusport/portalgate/internal/middleware"
	"github.com/campusport/portalgate/internal/notify"
	"github.com/campusport/portalgate/internal/ratelimit"
	"github.com/campusport/portalgate/internal/route"
	"github.com/campusport/portalgate/internal/session"
	"github.com/campusport/portalgate/internal/view"
	apperrors "github.com/campusport/portalgate/pkg/errors"
	"github.com/campusport/portalgate/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the session core over HTTP the way the portal
// front-end consumed it: login/logout/profile, role navigation, route
// resolution, and screen data.
type Handler struct {
	client   *session.Client
	router   *route.Router
	registry *view.Registry
	limiter  *ratelimit.Limiter // nil disables login throttling
	recorder *notify.Recorder
	log      *zap.Logger

	// healthChecks report the status of optional backing services on
	// /health, keyed by dependency name
	healthChecks map[string]func(context.Context) error

	// mu serializes session-mutating requests so drained notifications
	// belong to the request that caused them
	mu sync.Mutex
}

// NewHandler creates a gateway handler. The recorder must be one of the
// notifiers wired into the session client.
func NewHandler(
	client *session.Client,
	router *route.Router,
	registry *view.Registry,
	limiter *ratelimit.Limiter,
	recorder *notify.Recorder,
	log *zap.Logger,
) *Handler {
	return &Handler{
		client:       client,
		router:       router,
		registry:     registry,
		limiter:      limiter,
		recorder:     recorder,
		log:          log,
		healthChecks: make(map[string]func(context.Context) error),
	}
}

// AddHealthCheck registers a backing-service check reported on /health
func (h *Handler) AddHealthCheck(name string, check func(context.Context) error) {
	h.healthChecks[name] = check
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles email/password login
// POST /session/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	ipAddress := c.ClientIP()

	if h.limiter != nil {
		allowed, _, lockoutRemaining, err := h.limiter.Check(ctx, req.Email, ipAddress)
		if err != nil {
			// Throttling is best-effort; a dead Redis must not block login
			h.log.Warn("rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			middleware.RecordRateLimitHit()
			middleware.RecordLoginAttempt("blocked", 0)
			h.log.Info("login blocked",
				zap.String("email", req.Email),
				zap.Duration("lockout_remaining", lockoutRemaining),
			)
			response.Error(c, apperrors.ErrRateLimitExceeded)
			return
		}
	}

	start := time.Now()

	h.mu.Lock()
	ok := h.client.Login(ctx, req.Email, req.Password)
	notifications := h.recorder.Drain()
	h.mu.Unlock()

	if h.limiter != nil {
		if ok {
			_ = h.limiter.RecordSuccess(ctx, req.Email, ipAddress)
		} else {
			_ = h.limiter.RecordFailure(ctx, req.Email, ipAddress)
		}
	}

	if !ok {
		middleware.RecordLoginAttempt("failure", time.Since(start))
		response.ErrorWithNotifications(c, apperrors.ErrInvalidCredentials, notifications)
		return
	}

	middleware.RecordLoginAttempt("success", time.Since(start))
	response.SuccessWithNotifications(c, http.StatusOK, h.client.State().Snapshot(), notifications)
}

// Logout handles logout
// POST /session/logout
func (h *Handler) Logout(c *gin.Context) {
	h.mu.Lock()
	h.client.Logout(c.Request.Context())
	notifications := h.recorder.Drain()
	h.mu.Unlock()

	response.SuccessWithNotifications(c, http.StatusOK, h.client.State().Snapshot(), notifications)
}

// Me returns the current session state
// GET /session/me
func (h *Handler) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, h.client.State().Snapshot())
}

// UpdateProfile forwards a profile patch to the backend
// PUT /session/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	h.mu.Lock()
	ok := h.client.UpdateProfile(c.Request.Context(), patch)
	notifications := h.recorder.Drain()
	h.mu.Unlock()

	if !ok {
		response.ErrorWithNotifications(c,
			apperrors.NewAppError(apperrors.ErrCodeUpstreamError, "Profile update failed", http.StatusBadGateway),
			notifications)
		return
	}
	response.SuccessWithNotifications(c, http.StatusOK, h.client.State().Snapshot(), notifications)
}

// Navigation returns the active role's route table
// GET /session/navigation
func (h *Handler) Navigation(c *gin.Context) {
	response.Success(c, http.StatusOK, h.router.Routes())
}

// ResolveRoute reports the outcome of navigating to a path
// GET /session/resolve?path=/grades
func (h *Handler) ResolveRoute(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		response.ValidationError(c, "path is required")
		return
	}

	outcome := h.router.Resolve(path)
	middleware.RecordRouteResolution(string(outcome.Decision))
	response.Success(c, http.StatusOK, outcome)
}

// Screen resolves a path and, if allowed, serves the screen's data. A
// denied navigation never reaches the screen's fetcher.
// GET /screens/*path
func (h *Handler) Screen(c *gin.Context) {
	path := c.Param("path")
	if path == "" {
		path = route.IndexPath
	}

	outcome := h.router.Resolve(path)
	middleware.RecordRouteResolution(string(outcome.Decision))

	switch outcome.Decision {
	case route.DecisionPending:
		response.Error(c, apperrors.NewAppError("SESSION_RESTORING", "Session restore in progress", http.StatusServiceUnavailable))
	case route.DecisionRedirectLogin:
		response.Error(c, apperrors.ErrUnauthorized)
	case route.DecisionRedirectIndex:
		response.Success(c, http.StatusOK, gin.H{"redirect_to": outcome.RedirectTo})
	case route.DecisionNotFound:
		response.Error(c, apperrors.ErrRouteNotFound)
	case route.DecisionAllow:
		screen, ok := h.registry.Resolve(outcome.Role, path)
		if !ok {
			// Route table and registry disagree; treat as not found
			response.Error(c, apperrors.ErrRouteNotFound)
			return
		}
		data, err := screen.Fetch(c.Request.Context())
		if err != nil {
			h.log.Warn("screen fetch failed", zap.String("path", path), zap.Error(err))
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"screen": screen.Name, "data": data})
	}
}

// Health handles health checks, probing each registered backing service
// GET /health
func (h *Handler) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	dependencies := gin.H{}

	for name, check := range h.healthChecks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		if err := check(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			dependencies[name] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			dependencies[name] = "ok"
		}
		cancel()
	}

	body := gin.H{"status": status}
	if len(dependencies) > 0 {
		body["dependencies"] = dependencies
	}
	c.JSON(code, body)
}
