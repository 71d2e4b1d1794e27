// Package gateway serves the escrow.v1 operations as HTTP/JSON for the web
// client and the payment collaborator's webhook.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	escrowv1 "github.com/gigmate/gigmate/api/escrow/v1"
	"github.com/gigmate/gigmate/internal/platform/timeouts"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// DefaultRateLimit allows sixty requests per client per minute.
const DefaultRateLimit = "60-M"

// Config tunes the HTTP router.
type Config struct {
	// RateLimit uses the limiter format "<limit>-<period>", for example
	// "60-M". Empty applies DefaultRateLimit.
	RateLimit string
	// RequestTimeout bounds each call into the service. Zero applies
	// timeouts.GRPCRequest so both transports share one deadline.
	RequestTimeout time.Duration
	Logger         logrus.FieldLogger
}

// NewRouter builds the gin engine in front of the escrow service.
func NewRouter(svc escrowv1.BookingEscrowServiceServer, cfg Config) (*gin.Engine, error) {
	if svc == nil {
		return nil, fmt.Errorf("escrow service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	rateLimit, err := newRateLimiter(strings.TrimSpace(cfg.RateLimit))
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = timeouts.GRPCRequest
	}

	h := NewHandler(svc)
	v1 := r.Group("/v1")
	v1.Use(rateLimit, requestDeadline(timeout))
	{
		v1.POST("/bookings", h.CreateBooking)
		v1.GET("/bookings", h.ListBookings)
		v1.GET("/bookings/:id", h.GetBooking)
		v1.POST("/bookings/:id/accept", h.AcceptBooking)
		v1.POST("/bookings/:id/cancel", h.CancelBooking)
		v1.POST("/bookings/:id/confirm", h.ConfirmBooking)
		v1.POST("/bookings/:id/disputes", h.OpenDispute)
		v1.POST("/bookings/:id/ratings", h.SubmitRating)
		v1.GET("/fees", h.ComputeFees)
		v1.POST("/webhooks/payments", h.PaymentWebhook)
	}
	return r, nil
}

func newRateLimiter(formatted string) (gin.HandlerFunc, error) {
	if formatted == "" {
		formatted = DefaultRateLimit
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", formatted, err)
	}
	instance := limiter.New(memory.NewStore(), rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody("RATE_LIMITED", "too many requests"))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("INTERNAL", err.Error()))
		}),
	), nil
}

// requestDeadline attaches a deadline to the request context the handlers
// pass to the service.
func requestDeadline(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("http request failed")
		case status >= http.StatusBadRequest:
			entry.Info("http request rejected")
		default:
			entry.Debug("http request")
		}
	}
}
