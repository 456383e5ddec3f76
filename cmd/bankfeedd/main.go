package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/bankfeed/internal/bank"
	"github.com/jask/bankfeed/internal/cache"
	"github.com/jask/bankfeed/internal/config"
	"github.com/jask/bankfeed/internal/database"
	"github.com/jask/bankfeed/internal/database/repository"
	"github.com/jask/bankfeed/internal/events"
	"github.com/jask/bankfeed/internal/httpapi"
	"github.com/jask/bankfeed/internal/llm"
	"github.com/jask/bankfeed/internal/plaid"
	"github.com/jask/bankfeed/internal/service"
)

const defaultMigrationsPath = "internal/database/migrations"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	db, err := database.Open(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	migrationsPath := os.Getenv("BANKFEED_MIGRATIONS")
	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}
	if err := database.RunMigrations(cfg.Database.URL, migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}
	if err := database.SeedDefaults(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("seed defaults")
	}

	store, err := cache.New(cfg.Cache.Dir, cacheTTLs(cfg.Cache))
	if err != nil {
		log.Fatal().Err(err).Msg("open cache")
	}

	banks := repository.NewBankRepo(db)
	accounts := repository.NewAccountRepo(db)
	txs := repository.NewTransactionRepo(db)
	rules := repository.NewRuleRepo(db)

	var plaidClient *plaid.Client
	if secret := cfg.ResolvePlaidSecret(); cfg.Plaid.ClientID != "" && secret != "" {
		plaidClient = plaid.NewClient(cfg.Plaid.ClientID, secret, cfg.Plaid.Environment)
	} else {
		log.Warn().Msg("plaid credentials missing, plaid-linked banks disabled")
	}

	optimizer := bank.NewOptimizer(cfg.Plaid.MonthlyLimit)
	registry := bank.NewRegistry(plaidClient, store, optimizer, log)

	categorizer := service.NewCategorizer(rules, log)
	if err := categorizer.Refresh(context.Background()); err != nil {
		log.Warn().Err(err).Msg("load learned rules")
	}

	publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	defer publisher.Close()

	var primary llm.Provider
	if key := cfg.ResolveLLMKey(); cfg.LLM.Provider == "openai" && key != "" {
		primary = llm.NewOpenAI(key, cfg.LLM.Model)
	}
	advisor := service.NewAdvisor(accounts, txs, primary, llm.NewHeuristic(), log)

	syncer := service.NewSyncer(banks, accounts, txs, registry, categorizer, publisher, log)
	txService := service.NewTransactions(txs, categorizer, log)

	router := httpapi.NewRouter(&httpapi.API{
		DB:           db,
		Banks:        banks,
		Accounts:     accounts,
		Txs:          txs,
		Transactions: txService,
		Syncer:       syncer,
		Advisor:      advisor,
		Categorizer:  categorizer,
		Plaid:        plaidClient,
		Cache:        store,
		Optimizer:    optimizer,
		Registry:     registry,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func cacheTTLs(c config.CacheConfig) cache.TTLs {
	ttls := cache.DefaultTTLs()
	if c.AccountsTTLMin > 0 {
		ttls.Accounts = time.Duration(c.AccountsTTLMin) * time.Minute
	}
	if c.TransactionsTTLMin > 0 {
		ttls.Transactions = time.Duration(c.TransactionsTTLMin) * time.Minute
	}
	if c.BalanceTTLMin > 0 {
		ttls.Balance = time.Duration(c.BalanceTTLMin) * time.Minute
	}
	if c.InstitutionTTLMin > 0 {
		ttls.Institution = time.Duration(c.InstitutionTTLMin) * time.Minute
	}
	return ttls
}
