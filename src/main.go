package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"ticketbooth/src/boot"
	"ticketbooth/src/config"
	"ticketbooth/src/lib"
	"ticketbooth/src/middlewares"
	"ticketbooth/src/types"
	"ticketbooth/src/utils"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const (
	apiPrefix string = "/api/v1"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, types.SuccessResponse(gin.H{"status": "ok"}, ""))
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func maintenanceModeMiddleware(g *gin.Engine, enabled bool) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		if enabled {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, types.ErrorResponse(err.Error(), nil))
			return
		}
	})
	return g
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	if cfg.IsLocal() {
		return cors.Default()
	}
	origin, err := url.Parse(cfg.AppHost)
	if err != nil || (origin.Scheme != "http" && origin.Scheme != "https") || origin.Host == "" {
		log.Printf("Invalid APP_HOST %q for CORS, allowing all origins\n", cfg.AppHost)
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	cc.AllowOrigins = []string{origin.Scheme + "://" + origin.Host}
	cc.AllowCredentials = true
	return cors.New(cc)
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func registerRoutes(router *gin.Engine, app *boot.App) *gin.Engine {
	utils.RegisterValidators()
	router.Use(corsMiddleware(app.Config))
	router = maintenanceModeMiddleware(router, app.Config.MaintenanceMode)
	router.Use(middlewares.ErrorHandler)

	apiv1 := apiv1Group(router)
	eventHandlers(apiv1, app)

	authorized := apiv1.Group("", middlewares.AuthMiddleware(middlewares.AuthConfig{
		Secret:       []byte(app.Config.JWTSecret),
		TrustHeaders: app.Config.AuthTrustHeaders,
	}))
	authorized = reservationHandlers(authorized, app)
	authorized = paymentHandlers(authorized, app)
	ticketHandlers(authorized, app)
	return router
}

func initLogger(dir string) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Error creating log directory: %s\n", err.Error())
		return
	}
	serverLogs := path.Join(dir, "server.log")
	apiLogs := path.Join(dir, "api.log")

	f, err := os.OpenFile(apiLogs, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	cfg := config.Load()
	initLogger(cfg.LogDir)
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	gdb := boot.InitDb(cfg)
	rdb := lib.GetRedisClient(cfg.RedisHost)
	events := boot.InitBroker(context.Background(), cfg)
	app := boot.NewApp(cfg, gdb, rdb, boot.InitGateway(cfg), events)
	if err := app.InitScheduler(); err != nil {
		log.Printf("Error starting scheduler: %s\n", err.Error())
	}

	router := registerRoutes(setupRouter(), app)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %s\n", err.Error())
	}
	app.Shutdown()
}
