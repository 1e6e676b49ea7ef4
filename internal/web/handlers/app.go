package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/photo-migrate/internal/classify"
	"github.com/kozaktomas/photo-migrate/internal/config"
	"github.com/kozaktomas/photo-migrate/internal/coordinator"
	"github.com/kozaktomas/photo-migrate/internal/executor"
	"github.com/kozaktomas/photo-migrate/internal/immich"
	"github.com/kozaktomas/photo-migrate/internal/sourcedb"
	"github.com/kozaktomas/photo-migrate/internal/targetdb"
)

// App holds the service's mutable wiring: the current configuration plus
// whatever source/target connections and derived Coordinator/Executor it
// produced. Config hot-swaps (POST /config/*) rebuild the affected side; a
// source or target database swap also replaces the Coordinator with a new
// one, whose reader cache starts empty.
type App struct {
	mu  sync.RWMutex
	cfg *config.Config

	sourcePool *sourcedb.Pool
	sourceErr  error

	targetDBPool *targetdb.Pool
	targetDBErr  error

	client    *immich.Client
	clientErr error

	coordinator *coordinator.Coordinator
	executor    *executor.Executor
}

// NewApp builds the initial wiring from cfg. Connection failures are
// recorded, not fatal: GET /status reports them and later config updates
// may resolve them; failures never surface mid-batch, since readers are
// cached.
func NewApp(cfg *config.Config) *App {
	a := &App{cfg: cfg}
	a.connectSource(cfg.SourceDB)
	a.connectTargetDB(cfg.TargetDB)
	a.connectTargetAPI(cfg.TargetAPI)
	a.rebuildCoordinator()
	return a
}

func (a *App) connectSource(cfg config.SourceDBConfig) {
	if !cfg.Set() {
		a.sourcePool, a.sourceErr = nil, fmt.Errorf("source database not configured")
		return
	}
	pool, err := sourcedb.NewPool(cfg.Path)
	a.sourcePool, a.sourceErr = pool, err
}

func (a *App) connectTargetDB(cfg config.TargetDBConfig) {
	if !cfg.Set() {
		a.targetDBPool, a.targetDBErr = nil, fmt.Errorf("target database not configured")
		return
	}
	pool, err := targetdb.NewPool(targetdb.Config{
		Host: cfg.Host, Port: cfg.Port, Name: cfg.Name, User: cfg.User, Password: cfg.Password,
		MaxOpenConns: cfg.MaxOpenConns, MaxIdleConns: cfg.MaxIdleConns,
	})
	a.targetDBPool, a.targetDBErr = pool, err
}

func (a *App) connectTargetAPI(cfg config.TargetAPIConfig) {
	if !cfg.Set() {
		a.client, a.clientErr = nil, fmt.Errorf("target API not configured")
		return
	}
	client, err := immich.New(cfg.URL, cfg.APIKey)
	a.client, a.clientErr = client, err
	if client != nil {
		a.executor = executor.New(client)
	}
}

// rebuildCoordinator constructs a new Coordinator bound to the current
// readers. Called whenever source or target connectivity changes.
func (a *App) rebuildCoordinator() {
	var sourceReader coordinator.SourceReader
	if a.sourcePool != nil {
		sourceReader = sourcedb.NewReader(a.sourcePool)
	}
	var targetReader coordinator.TargetReader
	if a.targetDBPool != nil {
		targetReader = targetdb.NewReader(a.targetDBPool)
	}
	if sourceReader == nil || targetReader == nil {
		a.coordinator = nil
		return
	}
	cfg := classify.DefaultConfig()
	cfg.MinPhotosInCluster = a.cfg.Matching.MinPhotosInCluster
	a.coordinator = coordinator.New(sourceReader, targetReader, cfg)
}

// Config returns the current configuration snapshot.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Coordinator returns the current Coordinator, or nil if either side is
// unconfigured/unreachable.
func (a *App) Coordinator() *coordinator.Coordinator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.coordinator
}

// Executor returns the current Executor, or nil if the target API has not
// been configured. Whether the API is reachable is not checked.
func (a *App) Executor() *executor.Executor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.executor
}

// StoreStatus is one store's connectivity for GET /status.
type StoreStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Status reports connectivity for all three external stores.
func (a *App) Status(ctx context.Context) (source, targetDB, targetAPI StoreStatus) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.sourceErr != nil {
		source = StoreStatus{Connected: false, Error: a.sourceErr.Error()}
	} else {
		source = StoreStatus{Connected: true}
	}

	if a.targetDBErr != nil {
		targetDB = StoreStatus{Connected: false, Error: a.targetDBErr.Error()}
	} else {
		targetDB = StoreStatus{Connected: true}
	}

	if a.clientErr != nil {
		targetAPI = StoreStatus{Connected: false, Error: a.clientErr.Error()}
	} else {
		targetAPI = StoreStatus{Connected: true}
	}
	return
}

// SetSourceDBPath validates and hot-swaps the source database path,
// resetting the Coordinator's cache (POST /config/source-db).
func (a *App) SetSourceDBPath(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sourcePool != nil {
		_ = a.sourcePool.Close()
	}
	a.cfg.SourceDB.Path = path
	a.connectSource(a.cfg.SourceDB)
	a.rebuildCoordinator()
	return a.sourceErr
}

// SetTargetAPI validates and hot-swaps the Immich HTTP connection details
// (POST /config/target-api). Empty fields leave the existing value in
// place.
func (a *App) SetTargetAPI(url, apiKey string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if url != "" {
		a.cfg.TargetAPI.URL = url
	}
	if apiKey != "" {
		a.cfg.TargetAPI.APIKey = apiKey
	}
	a.connectTargetAPI(a.cfg.TargetAPI)
	return a.clientErr
}

// SetTargetDB validates and hot-swaps the Immich PostgreSQL connection
// details (POST /config/target-db). Empty fields leave the existing
// value in place.
func (a *App) SetTargetDB(host, port, name, user, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.targetDBPool != nil {
		_ = a.targetDBPool.Close()
	}
	if host != "" {
		a.cfg.TargetDB.Host = host
	}
	if port != "" {
		a.cfg.TargetDB.Port = port
	}
	if name != "" {
		a.cfg.TargetDB.Name = name
	}
	if user != "" {
		a.cfg.TargetDB.User = user
	}
	if password != "" {
		a.cfg.TargetDB.Password = password
	}
	a.connectTargetDB(a.cfg.TargetDB)
	a.rebuildCoordinator()
	return a.targetDBErr
}
