package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fetscr/fetscr-backend/internal/auth"
	authbiz "github.com/fetscr/fetscr-backend/internal/auth/biz"
	"github.com/fetscr/fetscr-backend/internal/auth/middleware"
	authservice "github.com/fetscr/fetscr-backend/internal/auth/service"
	"github.com/fetscr/fetscr-backend/internal/conf"
	"github.com/fetscr/fetscr-backend/internal/data"
	"github.com/fetscr/fetscr-backend/internal/payment"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	scrapebiz "github.com/fetscr/fetscr-backend/internal/scrape/biz"
	scrapedata "github.com/fetscr/fetscr-backend/internal/scrape/data"
	"github.com/fetscr/fetscr-backend/internal/scrape/provider"
	scrapeservice "github.com/fetscr/fetscr-backend/internal/scrape/service"
	"github.com/fetscr/fetscr-backend/internal/server"
	"github.com/fetscr/fetscr-backend/internal/supervisor"
	userbiz "github.com/fetscr/fetscr-backend/internal/user/biz"
	userdata "github.com/fetscr/fetscr-backend/internal/user/data"
	userservice "github.com/fetscr/fetscr-backend/internal/user/service"
	"go.uber.org/zap"
)

// workerEnv marks a process as a pool worker rather than the supervisor.
const workerEnv = "FETSCR_WORKER"

var configFile = flag.String("config", "config.yaml", "config file path")

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(logConfig); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	if os.Getenv(workerEnv) == "1" {
		runWorker(config, log)
		return
	}

	runSupervisor(config, log)
}

// runSupervisor forks one worker per logical CPU (unless overridden) and
// keeps the pool at full size.
func runSupervisor(config *conf.Config, log *logger.Logger) {
	workers := config.Server.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	executable, err := os.Executable()
	if err != nil {
		log.Fatal("failed to resolve executable path", zap.Error(err))
	}

	spawn := func() *exec.Cmd {
		cmd := exec.Command(executable, os.Args[1:]...)
		cmd.Env = append(os.Environ(), workerEnv+"=1")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd
	}

	sup := supervisor.New(supervisor.Config{Workers: workers}, spawn, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup.Run(ctx)
}

// runWorker wires one serving process and blocks until shutdown.
func runWorker(config *conf.Config, log *logger.Logger) {
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Repositories
	userRepo := userdata.NewUserRepo(d.DB)
	auditRepo := scrapedata.NewAuditRepo(d.DB)
	paymentRepo := payment.NewRepo(d.DB)

	// Use cases
	jwtManager := auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer)
	authUseCase := authbiz.NewAuthUseCase(userRepo, jwtManager)
	ledger := userbiz.NewQuotaLedger(userRepo)
	searchProvider := provider.NewGoogleProvider(&config.Search)
	aggregator := scrapebiz.NewAggregator(searchProvider, log)
	scrapeUseCase := scrapebiz.NewScrapeUseCase(ledger, aggregator, auditRepo, log)

	// Services
	authService := authservice.NewAuthService(authUseCase, log)
	userService := userservice.NewUserService(userRepo, log)
	scrapeService := scrapeservice.NewScrapeService(scrapeUseCase, log)
	paymentService := payment.NewService(paymentRepo, userRepo, log)

	authMiddleware := middleware.JWTAuth(jwtManager, log)
	rateLimiter := middleware.RateLimiter(d.RedisClient, config.RateLimit, log)

	httpServer := server.NewHTTPServer(
		config, log,
		authService, userService, scrapeService, paymentService,
		authMiddleware, rateLimiter,
	)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("worker started", zap.Int("pid", os.Getpid()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("worker exited")
}
