package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/islandechoes/health-api/internal/handler"
	admissionh "github.com/islandechoes/health-api/internal/handler/admission"
	appointmenth "github.com/islandechoes/health-api/internal/handler/appointment"
	authh "github.com/islandechoes/health-api/internal/handler/auth"
	careplanh "github.com/islandechoes/health-api/internal/handler/careplan"
	clinicalh "github.com/islandechoes/health-api/internal/handler/clinical"
	dashboardh "github.com/islandechoes/health-api/internal/handler/dashboard"
	notificationh "github.com/islandechoes/health-api/internal/handler/notification"
	profileh "github.com/islandechoes/health-api/internal/handler/profile"
	sponsorshiph "github.com/islandechoes/health-api/internal/handler/sponsorship"
	"github.com/islandechoes/health-api/internal/middleware"
	"github.com/islandechoes/health-api/internal/model"
)

type Handlers struct {
	Base         *handler.Handler
	Auth         *authh.Handler
	Profile      *profileh.Handler
	CarePlan     *careplanh.Handler
	Sponsorship  *sponsorshiph.Handler
	Appointment  *appointmenth.Handler
	Clinical     *clinicalh.Handler
	Notification *notificationh.Handler
	Admission    *admissionh.Handler
	Dashboard    *dashboardh.Handler
}

type Config struct {
	RateLimit     rate.Limit
	RateBurst     int
	Timeout       time.Duration
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config Config) *Router {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidators()

	engine := gin.New()

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  initRouterMetrics(config.MetricsPrefix),
	}

	sizeLimits := middleware.DefaultSizeLimitConfig()
	sizeLimits.UploadPaths = []string{
		"/api/v1/clinician-applications",
		"/api/v1/me/avatar",
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.SizeLimit(sizeLimits),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)
	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.handlers.Base.LivenessCheck)
		health.GET("/ready", r.handlers.Base.ReadinessCheck)
		health.GET("/metrics", r.handlers.Base.MetricsHandler)
	}
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", r.handlers.Auth.Signup)
		auth.POST("/login", r.handlers.Auth.Login)
		auth.POST("/staff/login", r.handlers.Auth.StaffLogin)
		auth.POST("/refresh", r.handlers.Auth.Refresh)
		auth.POST("/signout", r.handlers.Auth.SignOut)
		auth.POST("/forgot-password", r.handlers.Auth.ForgotPassword)
		auth.POST("/reset-password", r.handlers.Auth.ResetPassword)
	}

	rg.GET("/care-plans", r.handlers.CarePlan.ListCarePlans)
	rg.GET("/care-plans/:id", r.handlers.CarePlan.GetCarePlan)

	// Public clinician application intake.
	rg.POST("/clinician-applications", r.handlers.Admission.Submit)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", r.handlers.Auth.Logout)

	me := rg.Group("/me")
	{
		me.GET("", r.handlers.Profile.GetMe)
		me.PATCH("", r.handlers.Profile.UpdateMe)
		me.POST("/avatar", r.handlers.Profile.UploadAvatar)
	}

	rg.GET("/dashboard", r.handlers.Dashboard.UserHome)

	sponsorships := rg.Group("/sponsorships")
	{
		sponsorships.POST("/purchase", r.handlers.Sponsorship.PurchasePlan)
		sponsorships.GET("", r.handlers.Sponsorship.ListSponsorships)
		sponsorships.GET("/:id", r.handlers.Sponsorship.GetSponsoredPatient)
		sponsorships.DELETE("/:id", r.handlers.Sponsorship.EndSponsorship)
	}

	consents := rg.Group("/consents")
	{
		consents.GET("/pending", r.handlers.Sponsorship.ListPendingConsents)
		consents.POST("/:id/accept", r.handlers.Sponsorship.AcceptConsent)
		consents.POST("/:id/decline", r.handlers.Sponsorship.DeclineConsent)
	}

	notifications := rg.Group("/notifications")
	{
		notifications.GET("", r.handlers.Notification.ListNotifications)
		notifications.POST("/:id/read", r.handlers.Notification.MarkRead)
		notifications.DELETE("", r.handlers.Notification.ClearAll)
	}

	// Staff portal: clinicians, admins, and legacy front desk may read.
	staff := rg.Group("")
	staff.Use(r.auth.RequireStaff())
	{
		staff.GET("/portal", r.handlers.Dashboard.StaffPortal)
		staff.GET("/appointments", r.handlers.Appointment.ListAppointments)
		staff.GET("/appointments/:id", r.handlers.Appointment.GetAppointment)
		staff.GET("/patients/:id/metrics", r.handlers.Clinical.ListPatientMetrics)
	}

	// Clinical mutations: front desk is read-only and excluded.
	documenters := rg.Group("")
	documenters.Use(r.auth.RequireDocumenter())
	{
		documenters.POST("/appointments", r.handlers.Appointment.CreateAppointment)
		documenters.PATCH("/appointments/:id/status", r.handlers.Appointment.UpdateStatus)
		documenters.PATCH("/appointments/:id/reschedule", r.handlers.Appointment.Reschedule)
		documenters.POST("/appointments/:id/notes", r.handlers.Clinical.AddNote)
		documenters.POST("/appointments/:id/services", r.handlers.Clinical.AddService)
		documenters.POST("/metrics", r.handlers.Clinical.RecordMetrics)
	}

	admin := rg.Group("")
	admin.Use(r.auth.RequireRoles(model.RoleAdmin))
	{
		admin.GET("/clinician-applications", r.handlers.Admission.ListPending)
		admin.POST("/clinician-applications/:id/approve", r.handlers.Admission.Approve)
		admin.POST("/clinician-applications/:id/reject", r.handlers.Admission.Reject)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
