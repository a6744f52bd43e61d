package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"nutrition-backend/internal/account"
	"nutrition-backend/internal/analytics"
	googleauth "nutrition-backend/internal/auth"
	"nutrition-backend/internal/catalog"
	"nutrition-backend/internal/foodsearch"
	"nutrition-backend/internal/goals"
	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/labelscan"
	"nutrition-backend/internal/meals"
	"nutrition-backend/internal/queue"
	"nutrition-backend/internal/realtime"
	"nutrition-backend/internal/recommendations"
	"nutrition-backend/internal/reminders"
	"nutrition-backend/internal/services/health"
	"nutrition-backend/internal/shared/config"
	"nutrition-backend/internal/shared/server"
	"nutrition-backend/internal/shared/storage/db"
	"nutrition-backend/internal/shared/storage/object"
	localstore "nutrition-backend/internal/shared/storage/object/local"
	s3store "nutrition-backend/internal/shared/storage/object/s3"
	"nutrition-backend/internal/shared/telemetry"
	"nutrition-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Dialect string
	Objects object.ObjectStore
	KV      kvstore.Store
	Locks   *kvstore.KeyLocks
	Catalog *catalog.Catalog
	Hub     *realtime.Hub
	Queue   queue.Client

	// Notifier delivers reminder jobs; the worker and the in-process queue
	// share it.
	Notifier   reminders.Notifier
	Dispatcher *reminders.Dispatcher

	MealsService           *meals.Service
	RecommendationsService *recommendations.Service
	GoalsService           *goals.Service
	AnalyticsService       *analytics.Service
	LabelsService          *labelscan.Service
	RemindersService       *reminders.Service
	UsersService           *users.Service
	AccountService         *account.Service
	GoogleAuth             *googleauth.GoogleService
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	objects, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Dialect: dialect,
		Objects: objects,
		Locks:   kvstore.NewKeyLocks(),
		Hub:     realtime.NewHub(),
	}
	if sqlDB != nil {
		app.KV = kvstore.NewSQL(sqlDB, dialect)
	} else {
		app.KV = kvstore.NewMemory()
	}
	app.Catalog = buildCatalog(ctx, cfg, objects)

	if err := buildReminders(ctx, app); err != nil {
		return nil, err
	}
	buildServices(app)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Health:   health.NewService(pinger(sqlDB), catalogVersion(app.Catalog)),
		Handlers: handlers(app),
	})
	return app, nil
}

// Deliver hands one reminder job to the notifier.
func (a *App) Deliver(ctx context.Context, msg queue.Message) error {
	return reminders.Deliver(ctx, a.Notifier, msg)
}

// Close releases the database and websocket connections.
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, string, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_storage", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err == nil {
		dialect := db.DialectOf(cfg.DatabaseURL)
		if err = db.RunMigrations(ctx, sqlDB, dialect); err == nil {
			return sqlDB, dialect, nil
		}
		err = fmt.Errorf("run migrations: %w", err)
		if !db.IsLambdaRuntime() {
			_ = sqlDB.Close()
		}
	}
	if cfg.IsDevLike() {
		telemetry.Warn("bootstrap.memory_storage", map[string]any{"reason": "database unavailable", "error": err})
		return nil, "", nil
	}
	return nil, "", err
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildCatalog loads CATALOG_KEY from the object store or the embedded
// dataset. A failed load leaves the catalog nil so recommendation requests
// answer catalog_unavailable instead of the process refusing to start.
func buildCatalog(ctx context.Context, cfg config.Config, objects object.ObjectStore) *catalog.Catalog {
	var (
		cat *catalog.Catalog
		err error
	)
	if key := strings.TrimSpace(cfg.CatalogKey); key != "" {
		cat, err = catalog.Load(ctx, objects, key)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		telemetry.Error("bootstrap.catalog_unavailable", map[string]any{"key": cfg.CatalogKey, "error": err})
		return nil
	}
	telemetry.Info("bootstrap.catalog_loaded", map[string]any{"version": cat.Version(), "foods": cat.Len()})
	return cat
}

func buildReminders(ctx context.Context, app *App) error {
	cfg := app.Config
	notifiers := reminders.Multi{reminders.HubNotifier{Hub: app.Hub}}
	var endpoints reminders.EndpointRegistrar
	if strings.TrimSpace(cfg.SNSPlatformARN) != "" {
		pusher, err := reminders.NewSNSPusher(ctx, cfg.AWSRegion, cfg.SNSPlatformARN, app.KV)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, pusher)
		endpoints = pusher
	}
	app.Notifier = notifiers

	if strings.TrimSpace(cfg.QueueURL) != "" {
		client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.QueueURL)
		if err != nil {
			return err
		}
		app.Queue = client
	} else {
		app.Queue = queue.Func(app.Deliver)
	}

	app.RemindersService = reminders.NewService(app.KV, app.Locks, endpoints)
	app.Dispatcher = reminders.NewDispatcher(app.KV, app.Locks, app.Queue)
	return nil
}

func buildServices(app *App) {
	cfg := app.Config
	mealSvc := meals.NewService(app.KV, app.Locks, app.Hub)
	app.MealsService = mealSvc
	app.RecommendationsService = recommendations.NewService(
		app.Catalog,
		app.KV,
		app.Locks,
		recommendations.DefaultConfig().WithOverrides(cfg.Recommendations),
		app.Hub,
	)
	app.GoalsService = goals.NewService(app.KV, app.Locks, mealSvc.Log, mealSvc, app.Hub)
	app.AnalyticsService = analytics.NewService(mealSvc.Log, app.Objects)
	app.LabelsService = labelscan.NewService(app.Objects)

	var userRepo users.Repo = users.NewMemoryRepo()
	if app.DB != nil {
		userRepo = users.NewSQLRepo(app.DB, app.Dialect)
	}
	app.UsersService = users.NewService(userRepo)
	app.AccountService = account.NewService(app.KV, app.Locks, app.RemindersService)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.UsersService,
	)
}

func handlers(app *App) []server.RouteRegistrar {
	cfg := app.Config
	usda := foodsearch.NewUSDA(cfg.USDAAPIKey)
	if cfg.USDABaseURL != "" {
		usda.BaseURL = strings.TrimRight(cfg.USDABaseURL, "/")
	}
	off := foodsearch.NewOpenFoodFacts()
	if cfg.OpenFoodFactsURL != "" {
		off.BaseURL = strings.TrimRight(cfg.OpenFoodFactsURL, "/")
	}

	return []server.RouteRegistrar{
		users.NewHandler(app.UsersService),
		app.GoogleAuth,
		account.NewHandler(app.AccountService),
		meals.NewHandler(app.MealsService),
		recommendations.NewHandler(app.RecommendationsService),
		foodsearch.NewHandler(usda, off),
		labelscan.NewHandler(app.LabelsService),
		goals.NewHandler(app.GoalsService),
		analytics.NewHandler(app.AnalyticsService),
		reminders.NewHandler(app.RemindersService),
		realtime.NewHandler(app.Hub, cfg.CORSAllowOrigin),
	}
}

// RunDispatcher ticks the reminder dispatcher until ctx is done.
func (a *App) RunDispatcher(ctx context.Context) {
	secs := a.Config.ReminderTickSecs
	if secs <= 0 {
		secs = 60
	}
	a.Dispatcher.Run(ctx, time.Duration(secs)*time.Second)
}

func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}

func catalogVersion(cat *catalog.Catalog) string {
	if cat == nil {
		return ""
	}
	return cat.Version()
}
