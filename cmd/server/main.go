package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/thibovi/rebilt-backend/internal/api"
	"github.com/thibovi/rebilt-backend/internal/authz"
	"github.com/thibovi/rebilt-backend/internal/config"
	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/logging"
	"github.com/thibovi/rebilt-backend/internal/metrics"
	"github.com/thibovi/rebilt-backend/internal/queue"
	"github.com/thibovi/rebilt-backend/internal/services"
	"github.com/thibovi/rebilt-backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// App Runner only captures stdout
	log.SetOutput(os.Stdout)

	log.Printf("Rebilt backend starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	if err := run(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	var awsCfg aws.Config
	if cfg.SecretsARN != "" || cfg.SESFromEmail != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return err
		}
	}
	if cfg.SecretsARN != "" {
		if err := cfg.ApplySecrets(ctx, secretsmanager.NewFromConfig(awsCfg)); err != nil {
			return err
		}
		log.Println("[CONFIG] Applied secrets from Secrets Manager")
	}

	database, err := db.NewDatabase(ctx, db.Options{
		Type:          cfg.DBType,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		DatabaseURL:   cfg.DatabaseURL,
	})
	if err != nil {
		return err
	}
	defer database.Close(context.Background())

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	uploader, err := newUploader(ctx, cfg, httpClient)
	if err != nil {
		return err
	}

	var mailer services.Mailer = services.LogMailer{}
	if cfg.SESFromEmail != "" {
		mailer = services.NewEmailService(awsCfg, cfg.SESRegion, cfg.SESFromEmail)
	}

	var payments services.PaymentProvider
	if cfg.StripeSecretKey != "" {
		payments = services.NewStripeProvider(services.StripeOptions{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Currency:      cfg.CheckoutCurrency,
			SuccessURL:    cfg.CheckoutSuccessURL,
			CancelURL:     cfg.CheckoutCancelURL,
		})
	} else {
		log.Println("[WARN] STRIPE_SECRET_KEY not set; checkouts and webhooks answer 503")
	}

	var jobQueue *queue.RedisJobQueue
	if cfg.RedisAddr != "" {
		jobQueue, err = queue.NewRedisJobQueue(queue.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.ModelJobStream,
		})
		if err != nil {
			return err
		}
		defer jobQueue.Close()
		if err := jobQueue.Ping(ctx); err != nil {
			return err
		}
	}

	jobOpts := services.ModelJobOptions{
		Uploader:     uploader,
		PollInterval: cfg.ModelGenPollInterval,
		MaxPolls:     cfg.ModelGenMaxPolls,
	}
	if cfg.ModelGenURL != "" {
		jobOpts.Generator = services.NewModelGenClient(cfg.ModelGenURL, cfg.ModelGenAPIKey, httpClient)
	}
	if jobQueue != nil {
		jobOpts.Queue = jobQueue
	}
	jobs := services.NewModelJobService(database, jobOpts)

	var classifier services.ImageClassifier
	if cfg.ClassifierURL != "" {
		classifier = services.NewClassifierClient(cfg.ClassifierURL, httpClient)
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiration)
	enforcer, err := authz.New(authz.DefaultPolicies())
	if err != nil {
		return err
	}
	m := metrics.New("rebilt")

	handler := api.NewHandler(api.Deps{
		DB:         database,
		Resolver:   services.NewResolver(database, cfg.EnforceReferences),
		Accounts:   services.NewAccountService(database, tokens, mailer, cfg.ResetCodeTTL),
		Commerce:   services.NewCommerceService(database, payments),
		Media:      services.NewMediaService(database, uploader),
		Jobs:       jobs,
		Classifier: classifier,
		Metrics:    m,
	})
	router := api.NewRouter(handler, api.RouterOptions{
		Tokens:      tokens,
		Enforcer:    enforcer,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if jobQueue != nil && jobs.Enabled() {
		g.Go(func() error {
			log.Printf("[WORKER] Consuming model jobs from %s with %d workers", cfg.ModelJobStream, cfg.ModelJobWorker)
			jobQueue.Run(gctx, cfg.ModelJobWorker, countOutcomes(m, jobs.Process), jobs.GiveUp)
			return nil
		})
	}
	return g.Wait()
}

func newUploader(ctx context.Context, cfg *config.Config, client *http.Client) (*storage.Uploader, error) {
	switch cfg.StorageDriver {
	case "s3":
		store, err := storage.NewS3Store(ctx, cfg.AWSRegion, cfg.MediaBucket, cfg.MediaPublicBaseURL)
		if err != nil {
			return nil, err
		}
		return storage.NewUploader(store, client), nil
	case "minio":
		store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MediaBucket, cfg.MediaPublicBaseURL, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		return storage.NewUploader(store, client), nil
	default:
		log.Println("[WARN] STORAGE_DRIVER not set; media is stored by reference and uploads answer 503")
		return storage.NewUploader(nil, client), nil
	}
}

// countOutcomes records every handler result in the model job counter
func countOutcomes(m *metrics.Metrics, next queue.Handler) queue.Handler {
	return func(ctx context.Context, msg queue.Message) error {
		err := next(ctx, msg)
		outcome := "processed"
		if err != nil {
			outcome = "retry"
		}
		m.ModelJobs.WithLabelValues(outcome).Inc()
		return err
	}
}
