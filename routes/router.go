package routes

import (
	"net/http"
	"time"

	"polly-backend/auth"
	"polly-backend/config"
	"polly-backend/handlers"
	"polly-backend/logging"
	"polly-backend/service"
	"polly-backend/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server wraps the HTTP server
type Server struct {
	*http.Server
}

// Dependencies are the components the router serves
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       redis.UniversalClient
	Polls       service.PollService
	Auth        *auth.Service
	Hub         *websocket.Hub
	RateLimiter *handlers.RateLimiter
}

// SetupRouter builds the gin engine with every API route under /api
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger())

	origins := deps.Config.Server.AllowedOrigins
	anyOrigin := allowsAnyOrigin(origins)
	if anyOrigin {
		origins = []string{"*"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: !anyOrigin,
		MaxAge:           12 * time.Hour,
	}))

	var limit []gin.HandlerFunc
	if deps.RateLimiter != nil {
		limit = append(limit, deps.RateLimiter.Middleware())
	}

	var clients handlers.ClientCounter
	if deps.Hub != nil {
		clients = deps.Hub
	}

	api := router.Group("/api")
	api.Use(handlers.Authenticate(deps.Auth))
	{
		handlers.NewHealthHandler(deps.DB, deps.Redis, clients, deps.RateLimiter).RegisterRoutes(api)
		handlers.NewAuthHandler(deps.Auth).RegisterRoutes(api, limit...)
		handlers.NewPollHandler(deps.Polls, deps.Config.Server.LoginPath).RegisterRoutes(api, limit...)

		if deps.Hub != nil {
			websocket.NewHandler(deps.Hub, originChecker(deps.Config.Server.AllowedOrigins)).RegisterRoutes(api)
		}
	}

	return router
}

// StartServer starts serving router on port in the background
func StartServer(router *gin.Engine, port string) *Server {
	addr := ":" + port
	srv := &Server{
		&http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	log := logging.Module("server")
	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	return srv
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

func originChecker(origins []string) func(string) bool {
	if allowsAnyOrigin(origins) {
		return nil
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(origin string) bool {
		return allowed[origin]
	}
}
