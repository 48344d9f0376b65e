package main

import (
	"context"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"supmap-guidance/internal/api"
	"supmap-guidance/internal/cache"
	"supmap-guidance/internal/config"
	"supmap-guidance/internal/directions"
	"supmap-guidance/internal/favorites"
	"supmap-guidance/internal/geocode"
	"supmap-guidance/internal/incidents"
	"supmap-guidance/internal/metrics"
	"supmap-guidance/internal/subscriber"
	"supmap-guidance/internal/ws"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conf, err := config.New()
	if err != nil {
		return err
	}

	var loggerOpts slog.HandlerOptions
	if conf.Env == config.EnvDev {
		loggerOpts = slog.HandlerOptions{Level: slog.LevelDebug}
	}

	jsonHandler := slog.NewJSONHandler(os.Stdout, &loggerOpts)
	logger := slog.New(jsonHandler)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	redisClient := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(conf.RedisHost, conf.RedisPort)})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}()
	sessionCache := cache.NewRedisSessionCache(redisClient, conf.SessionTTL)
	favoriteStore := favorites.NewStore(redisClient)

	wsManager := ws.NewManager(ctx, logger, ws.Deps{
		Guidance:   conf.Guidance(),
		Directions: directions.NewClient(conf.ValhallaURL, conf.Directions()),
		Geocoder:   geocode.NewNominatimClient(conf.NominatimURL, conf.UserAgent, conf.GeocodeTimeout),
		Sessions:   sessionCache,
		Favorites:  favoriteStore,
		Metrics:    m,
	})
	go wsManager.Start()
	defer wsManager.Shutdown()

	multicaster := incidents.NewMulticaster(wsManager, sessionCache, conf.IncidentRadiusMeters, m, logger)
	sub := subscriber.NewSubscriber(logger, redisClient, conf.RedisIncidentsChannel, multicaster)

	go func() {
		if err := sub.Start(ctx); err != nil {
			logger.Error("subscriber stopped with error", "error", err)
		}
	}()

	server := api.NewServer(conf, wsManager, favoriteStore, registry, logger)
	if err := server.Start(ctx); err != nil {
		return err
	}

	return nil
}
