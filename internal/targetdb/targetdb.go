// Package targetdb reads face clusters and person labels out of Immich's
// PostgreSQL schema. Connection management follows a standard
// database/sql + lib/pq pool; SetGlobalPool/GetGlobalPool additionally hold
// an optional process-wide pool behind a mutex.
package targetdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/kozaktomas/photo-migrate/internal/facematch"
	"github.com/kozaktomas/photo-migrate/internal/model"
)

// Config holds the target_db_* connection settings: DSN fields plus
// connection pooling knobs.
type Config struct {
	Host, Port, Name, User, Password string
	MaxOpenConns, MaxIdleConns       int
}

func (c Config) dsn() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		c.Host, c.Port, c.Name, c.User, c.Password)
}

// Pool manages the target PostgreSQL connection pool.
type Pool struct {
	db *sql.DB
}

var (
	globalPool *Pool
	poolMu     sync.RWMutex
)

// NewPool opens and verifies a connection to Immich's database.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Host == "" || cfg.Name == "" {
		return nil, errors.New("target database host and name are required")
	}

	db, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 5
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 2
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing target database: %w", err)
		}
	}
	return nil
}

// SetGlobalPool publishes p as the process-wide singleton returned by
// GetGlobalPool.
func SetGlobalPool(p *Pool) {
	poolMu.Lock()
	defer poolMu.Unlock()
	globalPool = p
}

// GetGlobalPool returns the process-wide singleton, or nil if unset.
func GetGlobalPool() *Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return globalPool
}

// Reader implements coordinator.TargetReader against Immich's schema:
// person(id, name), asset_faces(id, "assetId", "personId", "imageWidth",
// "imageHeight", "boundingBoxX1", "boundingBoxY1", "boundingBoxX2",
// "boundingBoxY2"), asset(id, "originalFileName", "fileSizeInByte",
// "fileModifiedAt"). Faces with personId IS NULL are unclustered.
type Reader struct {
	pool *Pool
}

// NewReader wraps an already-opened Pool.
func NewReader(pool *Pool) *Reader {
	return &Reader{pool: pool}
}

const targetQuery = `
SELECT
	af.id, af."personId", p.name,
	af."boundingBoxX1", af."boundingBoxY1", af."boundingBoxX2", af."boundingBoxY2",
	af."imageWidth", af."imageHeight",
	a."originalFileName", a."fileSizeInByte", a."fileModifiedAt"
FROM asset_faces af
JOIN asset a ON a.id = af."assetId"
LEFT JOIN person p ON p.id = af."personId"
`

// Read loads the complete target inventory.
func (r *Reader) Read(ctx context.Context) (*model.TargetInventory, error) {
	inv := &model.TargetInventory{
		Clusters:            make(map[string]*model.Cluster),
		ExistingPersonNames: make(map[string]bool),
	}

	rows, err := r.pool.db.QueryContext(ctx, targetQuery)
	if err != nil {
		return nil, fmt.Errorf("querying target faces: %w", classifyTargetErr(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			faceID, fileName                    string
			personID, personName                sql.NullString
			x1, y1, x2, y2                       float64
			imageWidth, imageHeight              int
			sizeBytes                            int64
			modifiedAt                           time.Time
		)
		if err := rows.Scan(&faceID, &personID, &personName, &x1, &y1, &x2, &y2, &imageWidth, &imageHeight, &fileName, &sizeBytes, &modifiedAt); err != nil {
			return nil, fmt.Errorf("scanning target face row: %w", err)
		}

		rect := model.NormalizeFromPixels(x1, y1, x2, y2, imageWidth, imageHeight)
		if !rect.Valid() {
			inv.Malformed++
			continue
		}

		clusterID := ""
		if personID.Valid {
			clusterID = personID.String
			name := strings.TrimSpace(personName.String)
			cluster, ok := inv.Clusters[clusterID]
			if !ok {
				cluster = &model.Cluster{ID: clusterID, Name: name}
				inv.Clusters[clusterID] = cluster
			}
			cluster.FaceCount++
			if name != "" {
				inv.ExistingPersonNames[facematch.NormalizePersonName(name)] = true
			}
		}

		photoKey := model.NewPhotoKey(fileName, sizeBytes, modifiedAt, "")
		inv.Faces = append(inv.Faces, model.TargetFace{
			ID:        faceID,
			PhotoKey:  photoKey,
			Rect:      rect,
			ClusterID: clusterID,
		})
		inv.TotalFaces++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating target face rows: %w", err)
	}

	if len(inv.Faces) == 0 && len(inv.Clusters) == 0 {
		if schemaErr := r.probeSchema(ctx); schemaErr != nil {
			return nil, schemaErr
		}
		return nil, errors.New("target database contains no usable faces")
	}

	return inv, nil
}

func (r *Reader) probeSchema(ctx context.Context) error {
	var exists bool
	err := r.pool.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'asset_faces')`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("probing target schema: %w", err)
	}
	if !exists {
		return errors.New("target database schema unexpected: asset_faces table not found")
	}
	return nil
}

func classifyTargetErr(err error) error {
	return fmt.Errorf("store-unreachable or schema-unexpected: %w", err)
}
