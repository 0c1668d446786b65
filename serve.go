package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"threadfinder/config"
	"threadfinder/db"
	"threadfinder/handlers"
	"threadfinder/logger"
	"threadfinder/models"
	"threadfinder/processing"
	"threadfinder/storage"
	"threadfinder/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&config.BIND_ADDRESS, "bind", config.BIND_ADDRESS, "address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if err := db.Init(config.MYSQL_DSN, config.SQLITE_FILE); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := models.Init(); err != nil {
		return fmt.Errorf("database migration: %w", err)
	}
	store, err := storage.New()
	if err != nil {
		return fmt.Errorf("upload storage: %w", err)
	}
	engine, err := newEngine(config.FACE_ENGINE)
	if err != nil {
		return err
	}
	defer engine.Close()

	pool := processing.NewPool(loadGallery(ctx, engine, nil), engine, config.FACE_WORKERS)
	router := newRouter(handlers.New(pool, store))

	logger.Log.WithFields(logger.Fields{"engine": engine.Name(), "workers": config.FACE_WORKERS}).Info("Starting server")
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	return fmt.Errorf("server stopped: %w", err)
}

func newRouter(h *handlers.Handlers) *gin.Engine {
	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestLogMiddleware)
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        30 * 24 * time.Hour,
	}))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/uploads"})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()) // No cache by default, individual end-points can override that

	router.POST("/recognize", h.Recognize)
	router.GET("/uploads/:name", utils.CacheFor(utils.CacheUploads), h.Upload)
	router.GET("/gallery", h.Gallery)
	router.GET("/history", h.History)
	router.GET("/status", h.Status)

	// Web interface
	if _, err := os.Stat(config.STATIC_DIR); err == nil {
		router.Static("/static", config.STATIC_DIR)
		index := filepath.Join(config.STATIC_DIR, "index.html")
		if _, err = os.Stat(index); err == nil {
			router.StaticFile("/", index)
		}
	}
	return router
}
