// Package devserver serves the Lambda handler over plain HTTP for local
// development.
package devserver

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"book-recommender/internal/logging"
	"book-recommender/internal/transport"
)

const maxBodyBytes = 1 << 20

// ProxyHandler is the Lambda handler signature. *handler.Handler satisfies it.
type ProxyHandler interface {
	Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// NewRouter forwards every request to h as an API Gateway proxy event. The
// X-User-Id header stands in for the authorizer's principalId.
func NewRouter(h ProxyHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Preflight answers 200 like the Lambda handler does.
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:              []string{"Content-Type", transport.UserIDHeader, "X-Correlation-Id"},
		ExposeHeaders:             []string{"X-Correlation-Id"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		forward(c, h)
	})
	return r
}

func forward(c *gin.Context, h ProxyHandler) {
	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request"})
		return
	}

	resp, err := h.Handle(c.Request.Context(), toEvent(c.Request, body))
	if err != nil {
		logging.Logger().Error("handler failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	for k, v := range resp.Headers {
		if strings.HasPrefix(k, "Access-Control-") {
			continue
		}
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))

	logging.Logger().Debug("dev request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func toEvent(r *http.Request, body []byte) events.APIGatewayProxyRequest {
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	query := make(map[string]string)
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	ev := events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  string(body),
	}
	if uid := strings.TrimSpace(r.Header.Get(transport.UserIDHeader)); uid != "" {
		ev.RequestContext.Authorizer = map[string]interface{}{"principalId": uid}
	}
	return ev
}
