package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simaogato/herdledger-backend/internal/adapter/auth"
)

// NewRouter wires the Gin engine with the ledger routes and middlewares.
// Every /api route requires the API token; /healthz is public.
func NewRouter(h *Handler, apiToken string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1", tokenAuth(apiToken))
	{
		api.POST("/movements", h.RecordMovement)
		api.POST("/exits", h.RecordExits)
		api.GET("/exits/draft", h.GetExitDraft)
		api.POST("/sales", h.RecordSale)
		api.POST("/sales/preview", h.PreviewSale)
		api.POST("/allocations/validate", h.ValidateAllocation)
		api.GET("/ledger", h.GetLedger)
		api.GET("/causes", h.ListCauses)
	}

	return r
}

// tokenAuth accepts the token in the Authorization header (bare or Bearer) or in x-api-key
func tokenAuth(validToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("Authorization")
		if presented == "" {
			presented = c.GetHeader("x-api-key")
		}
		if strings.TrimSpace(presented) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing authorization header", Code: "UNAUTHENTICATED"})
			return
		}
		if !auth.TokenMatches(presented, validToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token", Code: "UNAUTHENTICATED"})
			return
		}
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
