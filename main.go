package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kubegraph/internal/cluster"
	"kubegraph/internal/config"
	"kubegraph/internal/janusgraph"
	"kubegraph/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	// Backends are optional at startup. The API serves /health regardless
	// and reports what is reachable; collection and queries fail with 503
	// until their backend comes up.
	store := janusgraph.New(janusgraph.Config{
		Host: cfg.JanusGraph.Host,
		Port: cfg.JanusGraph.Port,
	}, logger)
	if err := store.Connect(); err != nil {
		logger.Warn("janusgraph unavailable, starting without graph store", zap.Error(err))
	}
	defer store.Close()

	collector := cluster.NewCollector(nil, logger)
	if clientset, err := cluster.Connect(connectOptions(cfg.Kubernetes)); err != nil {
		logger.Warn("kubernetes cluster unavailable, starting without collector", zap.Error(err))
	} else {
		collector = cluster.NewCollector(clientset, logger)
	}

	server := web.NewServer(store, collector, logger)
	srv := &http.Server{
		Addr:    cfg.API.Addr(),
		Handler: server.Router(),
	}

	go func() {
		logger.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func connectOptions(cfg config.KubernetesConfig) cluster.ConnectOptions {
	opts := cluster.ConnectOptions{
		InCluster:      cfg.InCluster,
		KubeconfigPath: cfg.KubeconfigPath,
	}
	if cfg.SSH != nil {
		opts.SSH = &cluster.SSHOptions{
			Host:       cfg.SSH.Host,
			Port:       cfg.SSH.Port,
			User:       cfg.SSH.User,
			Password:   cfg.SSH.Password,
			RemotePath: cfg.SSH.RemotePath,
		}
	}
	return opts
}
