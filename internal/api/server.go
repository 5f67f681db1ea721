// Package api serves the read-only ops HTTP endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
)

// HealthChecker pings the backing database.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Reporter provides the read-only economy views.
type Reporter interface {
	Stats(ctx context.Context) (*model.Stats, error)
	Leaderboard(ctx context.Context, limit int) ([]*model.User, error)
	ListTransactions(ctx context.Context, limit int) ([]*model.Transaction, error)
}

// Server is the ops HTTP API.
type Server struct {
	srv *http.Server
}

type leaderboardEntry struct {
	Rank     int             `json:"rank"`
	UserID   int64           `json:"user_id"`
	Username string          `json:"username"`
	Shi      decimal.Decimal `json:"shi"`
}

type transactionEntry struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Meta      string          `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewServer builds the router and an http.Server listening on addr.
func NewServer(addr string, health HealthChecker, reporter Reporter) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(health, reporter),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// NewRouter registers the API routes.
func NewRouter(health HealthChecker, reporter Reporter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", healthHandler(health))
	r.GET("/stats", statsHandler(reporter))
	r.GET("/leaderboard", leaderboardHandler(reporter))
	r.GET("/transactions", transactionsHandler(reporter))
	return r
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("HTTP API listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP API stopped")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

// queryLimit reads ?limit=; absent means 0, which the reporter treats as
// its default page size.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

func internalError(c *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func healthHandler(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := health.HealthCheck(c.Request.Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func statsHandler(reporter Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := reporter.Stats(c.Request.Context())
		if err != nil {
			internalError(c, err, "failed to load stats")
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func leaderboardHandler(reporter Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryLimit(c)
		if !ok {
			return
		}

		users, err := reporter.Leaderboard(c.Request.Context(), limit)
		if err != nil {
			internalError(c, err, "failed to load leaderboard")
			return
		}

		out := make([]leaderboardEntry, len(users))
		for i, u := range users {
			out[i] = leaderboardEntry{Rank: i + 1, UserID: u.UserID, Username: u.DisplayName(), Shi: u.ShiBalance}
		}
		c.JSON(http.StatusOK, out)
	}
}

func transactionsHandler(reporter Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryLimit(c)
		if !ok {
			return
		}

		txs, err := reporter.ListTransactions(c.Request.Context(), limit)
		if err != nil {
			internalError(c, err, "failed to load transactions")
			return
		}

		out := make([]transactionEntry, len(txs))
		for i, tx := range txs {
			out[i] = transactionEntry{
				ID:        tx.ID,
				UserID:    tx.UserID,
				Type:      tx.Type,
				Amount:    tx.Amount,
				Currency:  tx.Currency,
				Meta:      tx.Meta,
				CreatedAt: tx.CreatedAt,
			}
		}
		c.JSON(http.StatusOK, out)
	}
}
