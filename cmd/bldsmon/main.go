// bldsmon exposes the state of a running BLDS over HTTP for lab
// dashboards: live server and source parameters, plus client metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/baccuslab/bldsctl/internal/client"
	"github.com/baccuslab/bldsctl/internal/config"
	"github.com/baccuslab/bldsctl/internal/observability"
	"github.com/baccuslab/bldsctl/internal/protocol"
	"github.com/baccuslab/bldsctl/internal/protocol/frame"
	"github.com/baccuslab/bldsctl/internal/protocol/params"
)

var startedAt = time.Now()

func main() {
	configPath := flag.String("config", "bldsmon.toml", "TOML config file")
	flag.Parse()

	logger := observability.InitLogger("bldsmon")
	observability.RegisterMetrics()

	cfg, err := config.LoadMonitorConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bldsmon: %v\n", err)
		os.Exit(1)
	}

	c := client.New(cfg.Blds.ClientConfig(), logger)
	if err := c.Connect(context.Background()); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Blds.ClientConfig().Addr()).
			Msg("BLDS not reachable at startup, will retry per request")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(startedAt).String(),
			"service":   "bldsmon",
			"blds":      cfg.Blds.ClientConfig().Addr(),
			"connected": c.Connected(),
		})
	})
	r.GET("/status", paramsHandler(c, logger, params.Server))
	r.GET("/source", paramsHandler(c, logger, params.Source))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info().Str("addr", cfg.Addr).Msg("bldsmon listening")
	if err := r.Run(cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "bldsmon: %v\n", err)
		os.Exit(1)
	}
}

// paramsHandler reads every parameter of one namespace. Individual reads
// can legitimately fail (no source created, no recording); those surface
// as per-parameter error strings rather than failing the whole request.
func paramsHandler(c *client.Client, logger zerolog.Logger, ns params.Namespace) gin.HandlerFunc {
	read := c.Get
	if ns == params.Source {
		read = c.GetSource
	}
	return func(ctx *gin.Context) {
		if !c.Connected() {
			if err := c.Connect(ctx.Request.Context()); err != nil {
				ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
		}

		values := gin.H{}
		for _, name := range params.Names(ns) {
			value, err := read(name)
			switch {
			case err == nil:
				values[name] = value.Format()
			case errors.Is(err, frame.ErrConnectionClosed):
				_ = c.Disconnect()
				ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			default:
				var serverErr protocol.ServerError
				if errors.As(err, &serverErr) {
					values[name] = gin.H{"error": serverErr.Message}
					continue
				}
				logger.Error().Err(err).Str("param", name).Msg("parameter read failed")
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
		ctx.JSON(http.StatusOK, values)
	}
}
