package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/customer"
	customerrepo "github.com/ovaphlow/pitchfork/service-crm-go/internal/customer/repo"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/migrations"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-crm-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-crm-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-crm-go/pkg/utilities"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens on all exit paths.
func run() error {
	// best-effort: a missing .env just means the real environment is used
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := utilities.InitLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-crm-go", "addr", cfg.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Errorw("db connect failed", "err", err)
		return err
	}
	defer sqlDB.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	err = migrations.Up(migrateCtx, sqlDB)
	cancel()
	if err != nil {
		sugar.Errorw("db migrate failed", "err", err)
		return err
	}

	sqlxDB := sqlx.NewDb(sqlDB, "postgres")

	ids, err := utilities.NewIDGenerator(cfg.SnowflakeNode)
	if err != nil {
		return fmt.Errorf("id generator: %w", err)
	}
	tokens := token.NewService(cfg.Auth.Secret, cfg.Auth.Expiry, cfg.Auth.Issuer)

	userSvc := user.NewUserService(userrepo.NewUserRepo(sqlxDB), user.BcryptHasher{Cost: cfg.Auth.BcryptCost}, tokens, ids, sugar)
	customerSvc := customer.NewService(customerrepo.NewRepo(sqlxDB), ids)

	handler := router.New(router.Deps{
		Logger:      sugar,
		Auth:        tokens,
		Users:       user.NewHandler(userSvc, sugar),
		Customers:   customer.NewHandler(customerSvc, sugar),
		DB:          sqlDB,
		CORSOrigins: cfg.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := serve(ctx, srv, sugar, cfg.ShutdownTimeout); err != nil {
		sugar.Errorw("http server failed", "err", err)
		return err
	}
	sugar.Info("goodbye")
	return nil
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts it
// down within timeout.
func serve(ctx context.Context, srv *http.Server, sugar *zap.SugaredLogger, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
