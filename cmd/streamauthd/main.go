package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	streamauth "github.com/atrisomya/streamauth"
	"github.com/atrisomya/streamauth/assets"
	"github.com/atrisomya/streamauth/httpapi"
)

type processConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"sa"`

	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET,required"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	S3Bucket        string `env:"S3_BUCKET,required"`
	S3Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3PathStyle     bool   `env:"S3_PATH_STYLE" envDefault:"false"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	AuditLog string `env:"AUDIT_LOG"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	var pc processConfig
	if err := env.Parse(&pc); err != nil {
		log.WithError(err).Fatal("parse environment")
	}
	if lvl, err := logrus.ParseLevel(pc.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     pc.RedisAddr,
		Password: pc.RedisPassword,
		DB:       pc.RedisDB,
	})
	defer rdb.Close()

	uploader, err := assets.NewS3Uploader(ctx, assets.S3Config{
		Bucket:        pc.S3Bucket,
		Region:        pc.S3Region,
		AccessKey:     pc.S3AccessKey,
		SecretKey:     pc.S3SecretKey,
		Endpoint:      pc.S3Endpoint,
		UsePathStyle:  pc.S3PathStyle,
		PublicBaseURL: pc.S3PublicBaseURL,
	})
	if err != nil {
		log.WithError(err).Fatal("configure asset uploader")
	}

	cfg := streamauth.DefaultConfig()
	cfg.Token.AccessSecret = []byte(pc.AccessSecret)
	cfg.Token.AccessTTL = pc.AccessTTL
	cfg.Token.RefreshSecret = []byte(pc.RefreshSecret)
	cfg.Token.RefreshTTL = pc.RefreshTTL
	cfg.Store.RedisPrefix = pc.RedisPrefix

	builder := streamauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUploader(uploader).
		WithLogger(log)

	if pc.AuditLog != "" {
		f, err := os.OpenFile(pc.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			log.WithError(err).Fatal("open audit log")
		}
		defer f.Close()
		builder = builder.WithAuditSink(streamauth.NewJSONWriterSink(f))
	}

	engine, err := builder.Build()
	if err != nil {
		log.WithError(err).Fatal("build engine")
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:         pc.Addr,
		Handler:      httpapi.NewServer(engine, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("addr", pc.Addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("serve")
	}
	log.Info("stopped")
}
