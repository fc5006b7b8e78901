package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-service/internal/config"
	"user-service/internal/domain"
	apphttp "user-service/internal/http"
	"user-service/internal/mail"
	"user-service/internal/repository"
	"user-service/internal/repository/sqlite"
	"user-service/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	tokens, err := service.NewTokenService(service.TokenConfig{
		Key:      cfg.Auth.JWTKey,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.TokenTTL(),
	}, time.Now)
	if err != nil {
		logger.Fatalf("setup token service: %v", err)
	}

	mailer, closeMailer, err := buildMailer(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup mail: %v", err)
	}
	defer closeMailer()

	userService, err := service.NewUserService(service.UserServiceConfig{
		Users: userRepo,
		Hasher: service.NewPasswordHasher(service.HasherConfig{
			Iterations: cfg.Password.Iterations,
			SaltSize:   cfg.Password.SaltSize,
			KeySize:    cfg.Password.KeySize,
		}),
		Policy: service.PasswordPolicy{
			MinLength:         cfg.Password.MinLength,
			RequireComplexity: cfg.Password.RequireComplexity,
		},
		Tokens:                  tokens,
		Mailer:                  mailer,
		Logger:                  logger,
		GeneratedPasswordLength: cfg.Password.GeneratedLength,
		MailSubject:             cfg.Mail.Subject,
	})
	if err != nil {
		logger.Fatalf("setup user service: %v", err)
	}

	if err := bootstrapAdmin(ctx, cfg, userRepo, userService, logger); err != nil {
		logger.Fatalf("bootstrap administrator: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(userService, tokens, logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildMailer(ctx context.Context, cfg config.Config, logger *logrus.Logger) (mail.Sender, func(), error) {
	noop := func() {}

	switch cfg.Mail.Driver {
	case "s3":
		client, err := buildS3Client(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		spool, err := mail.NewS3Spool(client, mail.S3SpoolOptions{
			Bucket:    cfg.Mail.S3.Bucket,
			KeyPrefix: cfg.Mail.S3.KeyPrefix,
			From:      cfg.Mail.From,
		})
		if err != nil {
			return nil, noop, err
		}
		logger.Infof("spooling mail to s3 bucket %s (region %s)", cfg.Mail.S3.Bucket, cfg.Mail.S3.Region)
		return spool, noop, nil
	case "amqp":
		conn, err := mail.DialQueue(cfg.Mail.AMQP.URL, cfg.Mail.AMQP.Queue)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := conn.Close(); err != nil {
				logger.Warnf("close amqp connection: %v", err)
			}
		}
		logger.Infof("publishing mail jobs to queue %s", cfg.Mail.AMQP.Queue)
		return mail.NewQueueSender(conn.Channel(), cfg.Mail.AMQP.Queue, cfg.Mail.From), closeFn, nil
	default:
		logger.Info("mail delivery disabled, logging messages instead")
		return mail.NewLogSender(logger), noop, nil
	}
}

func buildS3Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Mail.S3.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Mail.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Mail.S3.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// bootstrapAdmin enrols the first administrator on an empty database.
func bootstrapAdmin(ctx context.Context, cfg config.Config, repo repository.UserRepository, users service.UserService, logger *logrus.Logger) error {
	if cfg.Bootstrap.Mail == "" {
		return nil
	}
	existing, err := repo.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	admin, err := users.Register(ctx, service.RegisterInput{
		FirstName:     cfg.Bootstrap.FirstName,
		LastFirstName: cfg.Bootstrap.LastFirstName,
		Mail:          cfg.Bootstrap.Mail,
		Phone:         cfg.Bootstrap.Phone,
		CI:            cfg.Bootstrap.CI,
		Role:          string(domain.RoleAdministrator),
	}, 0)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	logger.WithFields(logrus.Fields{"user_id": admin.ID, "username": admin.Username}).Info("bootstrap administrator created")
	return nil
}
