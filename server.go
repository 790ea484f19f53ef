// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"os"
	"slices"
	"time"
	"umkm-portal/commons"
	"umkm-portal/crypto"
	"umkm-portal/db"
	"umkm-portal/handlers"
	"umkm-portal/notifications"
	"umkm-portal/passwordcheck"
	"umkm-portal/rabbitmq"
	"umkm-portal/ratelimit"
	"umkm-portal/resetflow"
	"umkm-portal/routes"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func newLimiter() ratelimit.Limiter {
	attempts := commons.GetEnvInt("RESET_VERIFY_MAX_ATTEMPTS", 5)
	window := commons.GetEnvDuration("RESET_VERIFY_WINDOW", 15*time.Minute)

	redisURL := commons.GetEnv("REDIS_URL")
	if redisURL == "" {
		commons.Logger.Info("REDIS_URL not set, verification attempts are counted in memory")
		return ratelimit.NewMemoryLimiter(attempts, window)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := ratelimit.NewRedisClient(ctx, redisURL)
	if err != nil {
		commons.Logger.Warnf("Redis unavailable, falling back to in-memory limiter: %v", err)
		return ratelimit.NewMemoryLimiter(attempts, window)
	}
	commons.Logger.Info("Verification attempts are counted in Redis")
	return ratelimit.NewRedisLimiter(rdb, "umkm:reset-verify", attempts, window)
}

func newPublisher() resetflow.Publisher {
	cfg := rabbitmq.LoadConfig()
	if cfg.AMQPURL == "" {
		commons.Logger.Info("RABBITMQ_URL not set, password reset events are not published")
		return nil
	}
	p, err := rabbitmq.NewPublisher(cfg)
	if err != nil {
		commons.Logger.Warnf("RabbitMQ unavailable, password reset events are not published: %v", err)
		return nil
	}
	return p
}

func main() {
	commons.LoadEnvFile()

	e := echo.New()
	e.HideBanner = true

	e.Logger.SetLevel(commons.Logger.Level())
	e.Logger.SetHeader("${time_rfc3339} ${level} ${short_file}:${line} -")

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logMsg := func(format string, args ...any) {
				switch {
				case v.Status >= 500:
					e.Logger.Errorf(format, args...)
				case v.Status >= 400:
					e.Logger.Warnf(format, args...)
				default:
					e.Logger.Infof(format, args...)
				}
			}
			logMsg("%s %s - %d - %.2fms - %s",
				v.Method,
				v.URI,
				v.Status,
				float64(v.Latency.Microseconds())/1000.0,
				v.RemoteIP,
			)
			return nil
		},
	}))
	debugMode := slices.Contains(os.Args[1:], "--debug")
	if debugMode {
		e.Logger.Warn("Debug mode is enabled.")
		e.Debug = true
		e.Logger.SetLevel(log.DEBUG)
		commons.Logger.SetLevel(log.DEBUG)
	}

	e.Use(middleware.Recover())

	db.InitDB(debugMode)
	if slices.Contains(os.Args[1:], "--migrate-db") {
		commons.Logger.Debug("--migrate-db flag detected, running migrations")
		db.MigrateDB()
	}

	users := resetflow.NewGormUsers(db.Conn, crypto.NewCrypto())
	opts := []resetflow.Option{resetflow.WithConfig(resetflow.LoadConfig())}
	if publisher := newPublisher(); publisher != nil {
		opts = append(opts, resetflow.WithPublisher(publisher))
		if p, ok := publisher.(*rabbitmq.Publisher); ok {
			defer p.Close()
		}
	}
	workflow := resetflow.New(resetflow.NewStore(db.Conn), users, users, opts...)

	reset := handlers.NewPasswordResetHandler(
		workflow,
		users,
		newLimiter(),
		notifications.NewEmailResetNotifier(),
		passwordcheck.DefaultPolicy(),
	)
	routes.RegisterRoutes(e, reset)

	port := commons.GetEnv("PORT", ":8080")
	if port[0] != ':' {
		port = ":" + port
	}
	e.Logger.Fatal(e.Start(port))
}
