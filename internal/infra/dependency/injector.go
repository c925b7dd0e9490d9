// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/travelbooks/backoffice/config"
	"github.com/travelbooks/backoffice/internal/application/usecase/aging"
	"github.com/travelbooks/backoffice/internal/application/usecase/discrepancy"
	"github.com/travelbooks/backoffice/internal/application/usecase/reconciliation"
	"github.com/travelbooks/backoffice/internal/infra/server/router"
	"github.com/travelbooks/backoffice/internal/integration/adapters"
	"github.com/travelbooks/backoffice/internal/integration/entrypoint/controller"
	"github.com/travelbooks/backoffice/internal/integration/entrypoint/middleware"
	"github.com/travelbooks/backoffice/internal/integration/persistence"
)

// Injector holds all application dependencies.
type Injector struct {
	Config *config.Config
	DB     *gorm.DB
	Router *router.Router
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Injector {
	matchingCfg := cfg.ToMatchingConfig()

	// Create repositories
	ledgerStore := persistence.NewLedgerStore(db)
	discrepancyRepo := persistence.NewDiscrepancyRepository(db)
	agingRepo := persistence.NewAgingRepository(db)
	customerDirectory := persistence.NewCustomerDirectory(db)

	// Create adapters/services
	tokenService := adapters.NewTokenService(cfg.Auth.Secret)
	passLock := adapters.NewRedisPassLock(redisClient)

	// Create use cases
	detector := discrepancy.NewDetector(discrepancyRepo, matchingCfg)
	recomputeUseCase := aging.NewRecomputeUseCase(ledgerStore, agingRepo)
	triggerUseCase := reconciliation.NewTriggerReconciliationUseCase(
		ledgerStore,
		passLock,
		detector,
		recomputeUseCase,
		matchingCfg,
	)
	suggestUseCase := reconciliation.NewSuggestMatchesUseCase(ledgerStore, customerDirectory, matchingCfg)
	confirmUseCase := reconciliation.NewConfirmMatchUseCase(ledgerStore, matchingCfg)
	reverseUseCase := reconciliation.NewReverseMatchUseCase(ledgerStore, matchingCfg)
	getDiscrepanciesUseCase := discrepancy.NewGetDiscrepanciesUseCase(discrepancyRepo)
	resolveDiscrepancyUseCase := discrepancy.NewResolveDiscrepancyUseCase(discrepancyRepo)
	getReceivableUseCase := aging.NewGetAccountsReceivableUseCase(agingRepo)

	// Create controllers
	healthController := controller.NewHealthController(
		func() bool {
			sqlDB, err := db.DB()
			if err != nil {
				return false
			}
			return sqlDB.Ping() == nil
		},
		func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err() == nil
		},
	)

	reconciliationController := controller.NewReconciliationController(
		triggerUseCase,
		suggestUseCase,
		confirmUseCase,
		reverseUseCase,
	)

	discrepancyController := controller.NewDiscrepancyController(
		getDiscrepanciesUseCase,
		resolveDiscrepancyUseCase,
	)

	agingController := controller.NewAgingController(getReceivableUseCase)

	// Create middleware
	// Use higher rate limits for test environments to prevent flaky tests
	var triggerRateLimiter *middleware.RateLimiter
	if cfg.Server.Environment == "test" {
		triggerRateLimiter = middleware.NewRateLimiterWithConfig(1000, 1*time.Minute)
	} else {
		triggerRateLimiter = middleware.NewRateLimiter()
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(
		healthController,
		reconciliationController,
		discrepancyController,
		agingController,
		triggerRateLimiter,
		authMiddleware,
	)

	return &Injector{
		Config: cfg,
		DB:     db,
		Router: r,
	}
}
