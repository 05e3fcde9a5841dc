package main

import (
	"context"
	"net/http"
	"os"

	"survey-analyzer/internal/aggregate"
	"survey-analyzer/internal/config"
	"survey-analyzer/internal/geocache"
	"survey-analyzer/internal/geocoder"
	"survey-analyzer/internal/handler"
	"survey-analyzer/internal/metrics"
	"survey-analyzer/internal/repository"
	"survey-analyzer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", config.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	policy, err := geocache.ParseKeyPolicy(config.CacheKeyPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid cache key policy")
	}

	// Geocoders, tried in order
	var chain geocoder.Chain
	if config.DBSource != "" {
		conn, err := pgxpool.New(context.Background(), config.DBSource)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to db")
		}
		defer conn.Close()

		repo := repository.NewRepository(conn)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("cannot prepare gazetteer schema")
		}
		chain = append(chain, geocoder.NewGazetteer(repo))
	}
	if config.MapboxToken != "" {
		chain = append(chain, geocoder.NewMapbox(config.MapboxBaseURL, config.MapboxToken))
	}
	if len(chain) == 0 {
		log.Warn().Msg("no geocoder configured; only cached places will resolve")
	}

	mode := aggregate.ModeFailFast
	if config.SkipUnresolved {
		mode = aggregate.ModeSkipUnresolved
	}

	opts := service.DefaultOptions()
	opts.CachePath = config.GeocodeCachePath
	opts.KeyPolicy = policy
	opts.TopWords = config.TopWords
	opts.Aggregate = aggregate.Options{Mode: mode, Workers: config.ResolveWorkers}

	// Initialize layers
	m := metrics.New(prometheus.DefaultRegisterer)
	analysisService := service.NewAnalysisService(chain, opts, m)

	analyzeHandler := handler.NewAnalyzeHandler(analysisService, config.SheetName, config.HeaderRow, config.MaxUploadMB<<20)
	cacheHandler := handler.NewCacheHandler(config.GeocodeCachePath, policy)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.POST("/analyze", analyzeHandler.Analyze)
	r.POST("/rows", analyzeHandler.Rows)
	r.POST("/controls", analyzeHandler.Controls)
	r.GET("/cache", cacheHandler.List)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("address", config.ServerAddress).Str("mode", mode.String()).Msg("starting server")
	if err := r.Run(config.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
