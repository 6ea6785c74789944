package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/evgkirov/shop-service/internal/app"
	"github.com/evgkirov/shop-service/internal/config"
	"github.com/evgkirov/shop-service/internal/currency"
	"github.com/evgkirov/shop-service/internal/events"
	"github.com/evgkirov/shop-service/internal/gateway"
	"github.com/evgkirov/shop-service/internal/handler"
	"github.com/evgkirov/shop-service/internal/postgres"
	"github.com/evgkirov/shop-service/internal/repo"
	"github.com/evgkirov/shop-service/internal/service"
	"github.com/evgkirov/shop-service/pkg/cache"
	"github.com/evgkirov/shop-service/pkg/trm"
)

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	rate, err := decimal.NewFromString(conf.Currency.Rate)
	panicIfErr("invalid currency rate", err)

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	itemRepo := repo.NewItemRepo(db)
	orderRepo := repo.NewOrderRepo(db)
	ruleRepo := repo.NewRuleRepo(db)
	cartRepo := repo.NewCartRepo(db)
	txManager := trm.NewManager(db)

	itemCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	itemCache.StartJanitor(ctx)

	converter := currency.NewConverter(conf.Currency.Base, conf.Currency.Secondary, rate)
	stripeClient := gateway.NewStripeClient(map[string]string{
		conf.Currency.Base:      conf.Stripe.BaseKey,
		conf.Currency.Secondary: conf.Stripe.SecondaryKey,
	})
	publisher := events.NewPublisher(logger, conf.Kafka.Brokers, conf.Kafka.Topic, conf.Kafka.BatchTimeout)

	itemService := service.NewItemService(logger, itemRepo, itemCache)
	cartService := service.NewCartService(logger, cartRepo, itemRepo)
	ruleService := service.NewRuleService(logger, txManager, ruleRepo)
	orderService := service.NewOrderService(logger, txManager, orderRepo, cartRepo, itemRepo, ruleRepo, converter, publisher)
	paymentService := service.NewPaymentService(logger, txManager, orderRepo, stripeClient, publisher)

	httpHandler := handler.NewHTTPHandler(logger, itemService, cartService, orderService, paymentService, ruleService)
	handler.RegisterMetrics()

	application := app.New(logger, conf)
	application.SetHTTPHandlers(httpHandler)
	application.AddClosers(publisher)

	application.Start()
	<-ctx.Done()
	panicIfErr("failed to stop app", application.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
