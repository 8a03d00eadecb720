package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/advisor"
	"github.com/suPer8Hu/mentor-chat/internal/common"
	"github.com/suPer8Hu/mentor-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/mentor-chat/internal/httpapi/middleware"
)

// NewRouter wires every route. limiter may be nil to disable rate limiting.
func NewRouter(h *handlers.Handler, limiter *middleware.IPRateLimiter, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))

	r.GET("/ping", h.Ping)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}

	// chats
	api.GET("/chats", h.ListChats)
	api.POST("/chats", h.CreateChat)
	api.PATCH("/chats/:id", h.RenameChat)
	api.DELETE("/chats/:id", h.DeleteChat)
	api.GET("/chats/:id/messages", h.ListMessages)
	api.POST("/chats/:id/messages", h.SendMessage)
	api.POST("/chats/:id/messages/stream", h.SendMessageStream)
	api.POST("/chats/:id/messages/async", h.SendMessageAsync)
	api.POST("/chats/:id/stop", h.StopGeneration)
	api.GET("/jobs/:id", h.GetJob)

	// chat analysis
	api.GET("/chats/:id/analysis", h.GetAnalysis)
	api.POST("/chats/:id/analysis", h.RunAnalysis)
	api.DELETE("/chats/:id/analysis", h.DeleteAnalysis)

	// prompts
	api.GET("/prompts", h.ListPrompts)
	api.POST("/prompts", h.CreatePrompt)
	api.GET("/prompts/:id", h.GetPrompt)
	api.PUT("/prompts/:id", h.UpdatePrompt)
	api.DELETE("/prompts/:id", h.DeletePrompt)

	// advisors
	advisorRoutes(api.Group("/assistants"), h, advisor.KindAssistant)
	advisorRoutes(api.Group("/mentors"), h, advisor.KindMentor)

	// settings
	api.GET("/settings/api", h.GetAPISettings)
	api.PUT("/settings/api", h.SaveAPISettings)
	api.GET("/settings/calculation", h.GetCalculationSettings)
	api.PUT("/settings/calculation", h.SaveCalculationSettings)
	return r
}

func advisorRoutes(g *gin.RouterGroup, h *handlers.Handler, kind advisor.Kind) {
	g.GET("", h.ListAdvisors(kind))
	g.POST("", h.CreateAdvisor(kind))
	g.GET("/default", h.GetDefaultAdvisor(kind))
	g.PUT("/:id", h.UpdateAdvisor(kind))
	g.DELETE("/:id", h.DeleteAdvisor(kind))
	g.POST("/:id/default", h.SetDefaultAdvisor(kind))
}
