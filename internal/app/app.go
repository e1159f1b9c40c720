// Package app initializes and runs the links page service.
// It configures logging, storage, sessions and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/linkfy/internal/actions"
	"github.com/patric-chuzhbe/linkfy/internal/config"
	"github.com/patric-chuzhbe/linkfy/internal/db/firestoredb"
	"github.com/patric-chuzhbe/linkfy/internal/db/jsondb"
	"github.com/patric-chuzhbe/linkfy/internal/db/memorystorage"
	"github.com/patric-chuzhbe/linkfy/internal/db/sqldb"
	"github.com/patric-chuzhbe/linkfy/internal/grpcserver"
	"github.com/patric-chuzhbe/linkfy/internal/logger"
	"github.com/patric-chuzhbe/linkfy/internal/models"
	"github.com/patric-chuzhbe/linkfy/internal/router"
	"github.com/patric-chuzhbe/linkfy/internal/service"
	"github.com/patric-chuzhbe/linkfy/internal/session"
	"github.com/patric-chuzhbe/linkfy/internal/table"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 15 * time.Second
)

// Storage is what every link store backend offers.
type Storage interface {
	GetUserLinks(ctx context.Context, email string) ([]models.LinkRecord, error)
	SaveUserLink(ctx context.Context, email string, record models.LinkRecord) error
	Ping(ctx context.Context) error
	Close() error
}

// App encapsulates the configuration, HTTP handler, storage backend
// and the optional gRPC health server.
type App struct {
	cfg           *config.Config
	db            Storage
	httpHandler   http.Handler
	healthChecker *grpcserver.HealthChecker
	grpcServer    *grpc.Server
	grpcListener  net.Listener
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the router and middleware
// - setting up the gRPC health server when an address is configured
func New(opts ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(opts...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = newStorage(context.Background(), app.cfg)
	if err != nil {
		return nil, err
	}

	signingKey, err := app.cfg.SigningKey()
	if err != nil {
		return nil, app.closeStorage(err)
	}

	svc := service.New(app.db)
	app.httpHandler = router.New(
		svc,
		table.NewRenderer(app.cfg.ShortLinkHost),
		actions.LoggingActions{},
		session.NewReader(
			session.NewCodec(signingKey, 0),
			app.cfg.SessionCookieName,
		),
	)

	app.healthChecker = grpcserver.NewHealthChecker(svc)
	if app.cfg.GRPCAddr != "" {
		app.grpcServer, app.grpcListener, err = grpcserver.NewGRPCServer(app.cfg.GRPCAddr, app.healthChecker)
		if err != nil {
			return nil, app.closeStorage(err)
		}
	}

	return app, nil
}

// Handler returns the HTTP handler of the service.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run starts the HTTP server (and the gRPC one when configured) with graceful
// shutdown support. It returns once a signal arrives or a server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 2)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()

	if a.grpcServer != nil {
		logger.Log.Infoln("gRPC health server running", "GRPCAddr", a.cfg.GRPCAddr)
		a.healthChecker.Run(healthCtx, healthCheckInterval)
		go func() {
			serverErrCh <- a.grpcServer.Serve(a.grpcListener)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		stopHealth()
		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if a.grpcServer != nil {
			a.grpcServer.Stop()
		}
		_ = a.db.Close()
		return fmt.Errorf("server error: %w", err)
	}
}

// closeStorage releases the store when New fails after opening it.
func (a *App) closeStorage(cause error) error {
	if err := a.db.Close(); err != nil {
		return errors.Join(cause, err)
	}

	return cause
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.FirestoreProjectID != "" {
		return models.StorageTypeFirestore
	}

	if cfg.DatabaseDSN != "" {
		return models.StorageTypeSQL
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

var newStorage = NewStorage

// NewStorage opens the first configured backend: Firestore, SQL, JSON file, memory.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeFirestore:
		return firestoredb.New(
			ctx,
			cfg.FirestoreProjectID,
			cfg.FirestoreCredentialsFile,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeSQL:
		return sqldb.New(
			ctx,
			cfg.DatabaseDriver,
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)

	case models.StorageTypeMemory:
		return memorystorage.New()
	}

	return nil, errors.New("unknown storage type")
}
