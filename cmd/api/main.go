package main

import (
	"cnpjapi/cmd/internal/config"
	"cnpjapi/cmd/internal/domain/database"
	"cnpjapi/cmd/internal/domain/database/repository"
	"cnpjapi/cmd/internal/http/handler"
	"cnpjapi/cmd/internal/infrastructure/aws/storage"
	"cnpjapi/cmd/internal/infrastructure/broker"
	"cnpjapi/cmd/internal/infrastructure/cache"
	"cnpjapi/cmd/internal/infrastructure/opencnpj"
	"cnpjapi/cmd/internal/routes"
	"cnpjapi/cmd/internal/service"
	"cnpjapi/cmd/internal/service/jobs"
	"cnpjapi/cmd/internal/utils/validators"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

const (
	defaultParameterPath = "/cnpjapi/prod/"
	shutdownTimeout      = 10 * time.Second
	schemaRetryDelay     = time.Second
	schemaRetryMaxDelay  = 30 * time.Second
)

func main() {
	// Loads env vars depending on environment
	if os.Getenv("GO_ENV") == "production" {
		loadProdEnv() // AWS SSM Parameter Store
	} else if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, schema, err := database.Init(database.Config{
		DSN:             cfg.DatabaseURL,
		SQLitePath:      cfg.DatabasePath,
		Production:      cfg.Production,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnectTimeout:  cfg.ConnectTimeout,
		Migrations:      cfg.Migrations,
		Debug:           cfg.DBDebug,
	})
	if err != nil {
		log.Fatalf("unable to initialize database: %v", err)
	}

	// Requests fail until the database is reachable and the schema is set up
	go func() {
		if serr := schema.Await(ctx, schemaRetryDelay, schemaRetryMaxDelay); serr != nil && !errors.Is(serr, context.Canceled) {
			log.Errorf("database schema setup abandoned: %v", serr)
		}
	}()

	provider := opencnpj.NewClient(cfg.OpenCNPJBaseURL,
		opencnpj.WithUserAgent("cnpjapi/"+cfg.Version),
		opencnpj.WithRateLimit(cfg.OpenCNPJRPS, cfg.OpenCNPJBurst),
	)

	// Repos
	companyRepo := repository.NewCompanyRepository(db)

	// Optional collaborators
	var opts []service.CompanyServiceOption
	var closers []func() error

	if lookupCache, closer := setupLookupCache(ctx, cfg, db); lookupCache != nil {
		opts = append(opts, service.WithLookupCache(lookupCache))
		if closer != nil {
			closers = append(closers, closer)
		}
	}

	if cfg.RabbitMQURL != "" {
		publisher, perr := broker.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if perr != nil {
			log.Errorf("unable to connect to rabbitmq, events disabled: %v", perr)
		} else {
			log.Infof("publishing company events to queue %s", cfg.RabbitMQQueue)
			opts = append(opts, service.WithEventPublisher(publisher))
			closers = append(closers, publisher.Close)
		}
	}

	if cfg.S3BucketName != "" {
		archive, serr := storage.NewRawArchive(ctx, cfg.S3Region, cfg.S3BucketName)
		if serr != nil {
			log.Errorf("unable to init S3 raw archive, archiving disabled: %v", serr)
		} else {
			log.Infof("archiving raw payloads to bucket %s", cfg.S3BucketName)
			opts = append(opts, service.WithRawArchiver(archive))
		}
	}

	// Services
	companyService := service.NewCompanyService(provider, companyRepo, validators.New(), opts...)
	healthService := service.NewHealthService(database.Pinger{DB: db, Schema: schema}, provider, cfg.Version)

	// Handlers
	companyRoutes := handler.NewCompanyRoute(companyService)
	healthRoutes := handler.NewHealthRoute(healthService)

	e := routes.NewServer(cfg.BodyLimit)
	e.Logger.SetLevel(cfg.LogLevel)
	routes.Register(e, companyRoutes, healthRoutes)

	go func() {
		log.Infof("listening on port %s", cfg.Port)
		if serr := e.Start(":" + cfg.Port); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", serr)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("graceful shutdown failed: %v", err)
	}

	companyService.Wait()
	for _, closer := range closers {
		if cerr := closer(); cerr != nil {
			log.Warnf("error closing resource: %v", cerr)
		}
	}
	if err = database.Close(db); err != nil {
		log.Warnf("error closing database: %v", err)
	}
}

// setupLookupCache returns nil when the cache is disabled or its backend is
// unavailable, lookups then always reach the provider.
func setupLookupCache(ctx context.Context, cfg config.Config, db *gorm.DB) (cache.LookupCache, func() error) {
	switch cfg.LookupCache {
	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Errorf("unable to connect to redis, lookup cache disabled: %v", err)
			return nil, nil
		}
		log.Infof("lookup cache on redis, ttl %s", cfg.LookupCacheTTL)
		return cache.NewRedisCache(client, cfg.LookupCacheTTL), client.Close

	case config.CacheDatabase:
		cacheRepo := repository.NewLookupCacheRepository(db)
		go jobs.NewLookupCacheCleaner(cacheRepo, cfg.LookupCacheTTL).Start(ctx)

		log.Infof("lookup cache on database, ttl %s", cfg.LookupCacheTTL)
		return cache.NewDatabaseCache(cacheRepo, cfg.LookupCacheTTL), nil
	}
	return nil, nil
}

func loadProdEnv() {
	path := os.Getenv("SSM_PARAMETER_PATH")
	if path == "" {
		path = defaultParameterPath
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	ctx := context.Background()
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	client := ssm.NewFromConfig(cfg)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		out, perr := paginator.NextPage(ctx)
		if perr != nil {
			log.Fatalf("unable to load prod environment, %v", perr)
		}

		// Export vars
		for _, param := range out.Parameters {
			key := strings.TrimPrefix(aws.ToString(param.Name), path)
			if enverr := os.Setenv(key, aws.ToString(param.Value)); enverr != nil {
				log.Fatalf("unable to set environment variable, %v", enverr)
			}
			loaded++
		}
	}
	log.Debugf("loaded %d prod environment variables", loaded)
}
