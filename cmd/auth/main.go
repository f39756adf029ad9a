package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	myPostgresRepo "github.com/quillist/auth-core/internal/adapters/db/postgres"
	myRedisRepo "github.com/quillist/auth-core/internal/adapters/db/redis"
	sendgridMail "github.com/quillist/auth-core/internal/adapters/mail/sendgrid"
	myHTTP "github.com/quillist/auth-core/internal/adapters/transport/http"
	httpmw "github.com/quillist/auth-core/internal/adapters/transport/http/middleware"
	appsvc "github.com/quillist/auth-core/internal/app/auth/service"
	apptoken "github.com/quillist/auth-core/internal/app/auth/token"
	"github.com/quillist/auth-core/internal/domain/auth/mail"
	"github.com/quillist/auth-core/internal/infra/config"
	lg "github.com/quillist/auth-core/internal/infra/log"
	"github.com/quillist/auth-core/internal/infra/migrate"
	"github.com/quillist/auth-core/internal/infra/server"
)

// logMailer stands in when no SendGrid key is configured.
type logMailer struct{ log *zap.Logger }

func (m logMailer) Send(_ context.Context, to, subject, _ string) error {
	m.log.Info("mail suppressed, no SENDGRID_API_KEY",
		zap.String("to", to), zap.String("subject", subject))
	return nil
}

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	validate := validator.New()
	_ = validate.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		var hasUpper, hasDigit bool
		for _, r := range pwd {
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		return utf8.RuneCountInString(pwd) >= 8 && hasUpper && hasDigit
	})

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	tokenRepo := myRedisRepo.NewRedisTokenRepo(redisCli)

	codec, err := apptoken.NewCodec(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}

	var mailer mail.Mailer = logMailer{log: zapLog}
	if cfg.SendgridAPIKey != "" {
		mailer = sendgridMail.New(cfg.SendgridAPIKey, cfg.MailFrom)
	}

	svc := appsvc.New(userRepo, tokenRepo, codec, mailer, cfg, validate, zapLog)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.NewRateLimitPerIP(50, 100, 10_000, time.Hour))

	corsConfig := cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	myHTTP.NewHandler(svc, cfg, zapLog).Register(router)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg.HTTPAddress, router, zapLog)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		zapLog.Info("shutdown signal received")
		cancel()
	case <-ctx.Done():
	}

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
