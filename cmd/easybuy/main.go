package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"easybuy/internal/config"
	"easybuy/internal/docstore"
	"easybuy/internal/events"
	"easybuy/internal/http/handlers"
	applog "easybuy/internal/log"
	"easybuy/internal/metrics"
	"easybuy/internal/payments"
	"easybuy/internal/ratelimit"
	"easybuy/internal/repos"
	"easybuy/internal/services"
	"easybuy/internal/token"
)

func main() {
	if err := run(); err != nil {
		applog.Logger().Fatal().Err(err).Msg("easybuy stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, logCloser, err := applog.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return err
	}
	applog.Set(lg)
	if logCloser != nil {
		defer logCloser.Close()
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	pay := handlers.PaymentOptions{Currency: cfg.Currency, Timeout: cfg.PaymentTimeout}
	if cfg.StripeKey != "" {
		st, err := payments.NewStripe(payments.Options{Key: cfg.StripeKey, Timeout: cfg.PaymentTimeout})
		if err != nil {
			return err
		}
		pay.Processor = st
	} else {
		applog.Logger().Warn().Msg("STRIPE_SECRET_KEY not set; payment endpoints will return 502")
	}

	bus, closeBus, err := newBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus()

	limits, closeLimits, err := newLimits(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimits()

	app := fiber.New(fiber.Config{
		AppName:      "easybuy",
		Views:        handlers.Views(),
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: `{"kind":"access","req_id":"${locals:requestid}","status":${status},"method":"${method}","path":"${path}","latency":"${latency}"}` + "\n",
		Output: accessWriter(cfg),
	}))
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(metrics.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "ratelimit.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "too many requests"})
		},
	}))

	deps := handlers.NewDeps(stores, tokens, pay, bus)
	handlers.Mount(app, deps, limits, handlers.StatusInfo{
		Store:    cfg.Store,
		Payments: pay.Processor != nil,
		Started:  time.Now(),
	})

	errc := make(chan error, 1)
	go func() {
		applog.Logger().Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("listening")
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	applog.Logger().Info().Msg("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func openStores(ctx context.Context, cfg config.Config) (services.Stores, func(), error) {
	switch cfg.Store {
	case "mongo":
		octx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		ds, err := docstore.Open(octx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return services.Stores{}, nil, fmt.Errorf("open mongo: %w", err)
		}
		closeFn := func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ds.Close(cctx)
		}
		return services.Stores{
			Users: ds.Users, Categories: ds.Categories, Products: ds.Products,
			Bookings: ds.Bookings, Payments: ds.Payments,
		}, closeFn, nil
	default:
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return services.Stores{}, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return services.Stores{
			Users:      repos.NewUserRepo(db),
			Categories: repos.NewCategoryRepo(db),
			Products:   repos.NewProductRepo(db),
			Bookings:   repos.NewBookingRepo(db),
			Payments:   repos.NewPaymentRepo(db),
		}, func() { _ = db.Close() }, nil
	}
}

func newBus(cfg config.Config) (*events.Bus, func(), error) {
	bus := events.NewBus()
	bus.OnError(func(ev *events.Event, err error) {
		applog.Logger().Error().Err(err).Str("type", ev.Type).Msg("event.sink.fail")
	})
	bus.SubscribeAll(events.LogSink(applog.Logger()))

	if len(cfg.KafkaBrokers) == 0 {
		return bus, func() {}, nil
	}
	sink, err := events.DialKafka(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
	if err != nil {
		return nil, nil, err
	}
	bus.SubscribeAll(sink.Handle)
	applog.Logger().Info().Strs("brokers", cfg.KafkaBrokers).Msg("kafka event sink enabled")
	return bus, func() { _ = sink.Close() }, nil
}

// newLimits uses Redis when REDIS_ADDR is set so limits hold across
// replicas; otherwise fiber's in-memory limiter.
func newLimits(ctx context.Context, cfg config.Config) (handlers.Limits, func(), error) {
	if cfg.RedisAddr == "" {
		reached := func(bucket string) fiber.Handler {
			return func(c *fiber.Ctx) error {
				applog.Security(c, "ratelimit.exceeded", map[string]any{"bucket": bucket})
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "too many requests"})
			}
		}
		return handlers.Limits{
			Token:  limiter.New(limiter.Config{Max: 5, Expiration: 10 * time.Minute, LimitReached: reached("token")}),
			Intent: limiter.New(limiter.Config{Max: 10, Expiration: time.Minute, LimitReached: reached("intent")}),
		}, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return handlers.Limits{}, nil, fmt.Errorf("redis ping: %w", err)
	}
	tokenRL, err := ratelimit.New(rdb, "easybuy:rl", 5, 10*time.Minute)
	if err != nil {
		return handlers.Limits{}, nil, err
	}
	intentRL, err := ratelimit.New(rdb, "easybuy:rl", 10, time.Minute)
	if err != nil {
		return handlers.Limits{}, nil, err
	}
	return handlers.Limits{
		Token:  tokenRL.Middleware("token"),
		Intent: intentRL.Middleware("intent"),
	}, func() { _ = rdb.Close() }, nil
}

// accessWriter sends access lines to the log file when one is configured.
func accessWriter(cfg config.Config) io.Writer {
	if cfg.LogFile == "" || strings.EqualFold(cfg.LogFormat, "console") {
		return os.Stdout
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		applog.Logger().Warn().Err(err).Msg("access log falls back to stdout")
		return os.Stdout
	}
	return f
}
