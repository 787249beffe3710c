// Package server builds the HTTP router and runs it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/signalpage/signalpage/internal/auth"
	"github.com/signalpage/signalpage/internal/handlers"
	"github.com/signalpage/signalpage/internal/logger"
	"github.com/signalpage/signalpage/internal/metrics"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Handlers groups every route handler the router mounts.
type Handlers struct {
	Jobs          *handlers.JobHandler
	Resumes       *handlers.ResumeHandler
	Pages         *handlers.SignalPageHandler
	Notifications *handlers.NotificationHandler
	Accounts      *handlers.AccountHandler
	Billing       *handlers.BillingHandler
	Public        *handlers.PublicHandler
}

type Options struct {
	Verifier    *auth.Verifier
	CORSOrigins []string
	Log         *zap.Logger
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	return config
}

// NewRouter wires middleware and routes.
func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 12 << 20
	r.Use(gin.Recovery(), logger.Gin(opts.Log), metrics.Gin(), cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/metrics", metrics.Handler())
	r.GET("/p/:slug", h.Public.RenderPage)

	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/public/pages/:slug", h.Public.GetPage)
		api.POST("/billing/webhook", h.Billing.Webhook)
	}

	authed := api.Group("", auth.Middleware(opts.Verifier))
	{
		authed.GET("/profile", h.Accounts.GetProfile)
		authed.PUT("/profile", h.Accounts.UpdateProfile)
		authed.GET("/settings", h.Accounts.GetSettings)
		authed.PUT("/settings", h.Accounts.UpdateSettings)

		authed.POST("/resumes", h.Resumes.UploadResume)
		authed.GET("/resumes", h.Resumes.ListResumes)
		authed.GET("/resumes/:id", h.Resumes.GetResume)
		authed.DELETE("/resumes/:id", h.Resumes.DeleteResume)

		// Job Routes
		authed.POST("/jobs/extract", h.Jobs.ParseJob)
		authed.POST("/jobs", h.Jobs.CreateJob)
		authed.GET("/jobs", h.Jobs.ListJobs)
		authed.GET("/jobs/:id", h.Jobs.GetJob)
		authed.PATCH("/jobs/:id/status", h.Jobs.UpdateStatus)
		authed.DELETE("/jobs/:id", h.Jobs.DeleteJob)

		authed.POST("/signal-pages", h.Pages.Generate)
		authed.GET("/signal-pages", h.Pages.List)
		authed.GET("/signal-pages/:id", h.Pages.Get)
		authed.PATCH("/signal-pages/:id", h.Pages.Update)
		authed.DELETE("/signal-pages/:id", h.Pages.Delete)

		authed.GET("/notifications", h.Notifications.List)
		authed.GET("/notifications/unread-count", h.Notifications.UnreadCount)
		authed.PATCH("/notifications/:id/read", h.Notifications.MarkRead)
		authed.POST("/notifications/read-all", h.Notifications.MarkAllRead)
		authed.DELETE("/notifications/:id", h.Notifications.Delete)

		authed.GET("/subscription", h.Billing.Subscription)
		authed.POST("/billing/checkout", h.Billing.Checkout)
		authed.POST("/billing/portal", h.Billing.Portal)
	}
	return r
}

// Run serves handler on addr until ctx is canceled, then drains in-flight
// requests for up to ten seconds.
func Run(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	log = logger.OrNop(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
