package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// API endpoints (conditionally enabled with authentication)
	if apiAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(apiAccessKey))
		{
			api.POST("/pipeline/run", handler.APIRunPipeline)
			api.GET("/users/:name/recommendations", handler.APIGetRecommendations)
			api.GET("/users/:name/drafts/:id/prediction", handler.APIGetDraftPrediction)
			api.GET("/users/:name/posting-times", handler.APIGetPostingTimes)
			api.GET("/users/:name/next-posting-time", handler.APIGetNextPostingTime)
			api.POST("/users/:name/validate-schedule", handler.APIValidateSchedule)
			api.POST("/users/:name/plan-schedule", handler.APIPlanSchedule)
			api.POST("/users/:name/scoring-weights", handler.APIUpdateScoringWeights)
		}
		log.Printf("API endpoints enabled with authentication")
	} else {
		log.Printf("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"health": "/health",
			"stats":  "/stats",
		}

		if apiAccessKey != "" {
			endpoints["pipeline"] = "/api/pipeline/run (POST, requires X-API-Key header)"
			endpoints["recommendations"] = "/api/users/<name>/recommendations (requires X-API-Key header)"
			endpoints["draft_prediction"] = "/api/users/<name>/drafts/<id>/prediction (requires X-API-Key header)"
			endpoints["posting_times"] = "/api/users/<name>/posting-times (requires X-API-Key header)"
			endpoints["next_posting_time"] = "/api/users/<name>/next-posting-time (requires X-API-Key header)"
			endpoints["validate_schedule"] = "/api/users/<name>/validate-schedule (POST, requires X-API-Key header)"
			endpoints["plan_schedule"] = "/api/users/<name>/plan-schedule (POST, requires X-API-Key header)"
			endpoints["scoring_weights"] = "/api/users/<name>/scoring-weights (POST, requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "PostPilot",
			"description": "Content triage and LinkedIn posting recommendation engine",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       apiAccessKey != "",
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
