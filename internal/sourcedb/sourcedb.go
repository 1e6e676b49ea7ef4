// Package sourcedb reads face-recognition labels out of the Windows Photos
// Legacy SQLite store. Connection management mirrors a typical pooled SQL
// client, adapted to modernc.org/sqlite (pure Go, no cgo) since the legacy
// store is a local file, not a network service.
package sourcedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kozaktomas/photo-migrate/internal/facematch"
	"github.com/kozaktomas/photo-migrate/internal/model"
)

// Pool manages the legacy SQLite connection. The file is opened read-only:
// this service never writes to the source store.
type Pool struct {
	db *sql.DB
}

// NewPool opens the legacy Photos database at path.
func NewPool(path string) (*Pool, error) {
	if path == "" {
		return nil, errors.New("source database path is required")
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open source database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite: one writer/reader at a time is simplest and sufficient for a batch read
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open source database %s: %w", path, err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing source database: %w", err)
		}
	}
	return nil
}

// Reader implements coordinator.SourceReader against the legacy schema:
// Persons(PersonId, Name), MediaItems(MediaItemId, FileName, SizeBytes,
// DateModified), Faces(FaceId, PersonId, MediaItemId, Left, Top, Right,
// Bottom, ImageWidth, ImageHeight). Rectangles are stored in pixels and
// normalized to [0,1] on read.
type Reader struct {
	pool *Pool
}

// NewReader wraps an already-opened Pool.
func NewReader(pool *Pool) *Reader {
	return &Reader{pool: pool}
}

const sourceQuery = `
SELECT
	p.PersonId, p.Name,
	f.FaceId, f.Left, f.Top, f.Right, f.Bottom, f.ImageWidth, f.ImageHeight,
	m.FileName, m.SizeBytes, m.DateModified
FROM Persons p
JOIN Faces f ON f.PersonId = p.PersonId
JOIN MediaItems m ON m.MediaItemId = f.MediaItemId
`

const orphanQuery = `
SELECT p.PersonId, p.Name
FROM Persons p
LEFT JOIN Faces f ON f.PersonId = p.PersonId
WHERE f.FaceId IS NULL
`

// Read loads the complete source inventory. A face row with a
// missing rectangle component or a rectangle that normalizes outside
// [0,1]/degenerate is dropped and tallied as malformed rather than failing
// the read; the read only fails hard if it returns nothing usable at all.
func (r *Reader) Read(ctx context.Context) (*model.SourceInventory, error) {
	inv := &model.SourceInventory{
		Persons: make(map[string]*model.SourcePerson),
	}

	// byNormalizedName groups persons whose trimmed display names only
	// differ by case, diacritics, or dashes vs. spaces (see
	// facematch.NormalizePersonName) into a single SourcePerson. nameVariants
	// tracks how many faces each original casing contributed so the most-
	// populated variant can be chosen as the display name once all rows are
	// in.
	byNormalizedName := make(map[string]string)      // normalized -> canonical PersonId
	nameVariants := make(map[string]map[string]int) // canonical PersonId -> {original name -> face count}

	rows, err := r.pool.db.QueryContext(ctx, sourceQuery)
	if err != nil {
		return nil, fmt.Errorf("querying source faces: %w", classifySourceErr(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			personID, faceID, fileName string
			name                       string
			left, top, right, bottom   float64
			imageWidth, imageHeight    int
			sizeBytes                  int64
			dateModified               time.Time
		)
		if err := rows.Scan(&personID, &name, &faceID, &left, &top, &right, &bottom, &imageWidth, &imageHeight, &fileName, &sizeBytes, &dateModified); err != nil {
			return nil, fmt.Errorf("scanning source face row: %w", err)
		}

		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		normalized := facematch.NormalizePersonName(name)
		canonicalID, seen := byNormalizedName[normalized]
		if !seen {
			byNormalizedName[normalized] = personID
			canonicalID = personID
		}

		person, ok := inv.Persons[canonicalID]
		if !ok {
			person = &model.SourcePerson{ID: canonicalID, Name: name}
			inv.Persons[canonicalID] = person
			nameVariants[canonicalID] = make(map[string]int)
		}

		rect := model.NormalizeFromPixels(left, top, right, bottom, imageWidth, imageHeight)
		if !rect.Valid() {
			inv.Malformed++
			continue
		}

		photoKey := model.NewPhotoKey(fileName, sizeBytes, dateModified, "")
		person.Faces = append(person.Faces, model.SourceFace{
			ID:             faceID,
			PhotoKey:       photoKey,
			Rect:           rect,
			SourcePersonID: canonicalID,
		})
		nameVariants[canonicalID][name]++
		inv.TotalFaces++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source face rows: %w", err)
	}
	if err := r.loadOrphans(ctx, inv); err != nil {
		return nil, err
	}

	if len(inv.Persons) == 0 {
		// Nothing usable at all, named or orphaned: the read fails hard.
		// Distinguish a schema mismatch from a genuinely empty store for a
		// clearer error.
		if schemaErr := r.probeSchema(ctx); schemaErr != nil {
			return nil, schemaErr
		}
		return nil, errors.New("source database contains no usable persons or faces")
	}

	applyMostPopulatedNames(inv, nameVariants)

	return inv, nil
}

// applyMostPopulatedNames sets each SourcePerson's display name to whichever
// original casing contributed the most faces. Ties break on the
// lexicographically smallest variant for determinism.
func applyMostPopulatedNames(inv *model.SourceInventory, nameVariants map[string]map[string]int) {
	for id, person := range inv.Persons {
		variants := nameVariants[id]
		if len(variants) == 0 {
			continue
		}
		best := person.Name
		bestCount := -1
		for name, count := range variants {
			if count > bestCount || (count == bestCount && name < best) {
				best = name
				bestCount = count
			}
		}
		person.Name = best
	}
}

// loadOrphans appends named persons with zero faces.
func (r *Reader) loadOrphans(ctx context.Context, inv *model.SourceInventory) error {
	rows, err := r.pool.db.QueryContext(ctx, orphanQuery)
	if err != nil {
		return fmt.Errorf("querying orphan persons: %w", classifySourceErr(err))
	}
	defer rows.Close()

	for rows.Next() {
		var personID, name string
		if err := rows.Scan(&personID, &name); err != nil {
			return fmt.Errorf("scanning orphan person row: %w", err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := inv.Persons[personID]; exists {
			continue
		}
		inv.Persons[personID] = &model.SourcePerson{ID: personID, Name: name}
		inv.Orphans = append(inv.Orphans, personID)
	}
	return rows.Err()
}

// probeSchema distinguishes "empty but well-formed database" from "this
// isn't the schema we expect" by checking for the Persons table's
// existence, surfacing a schema-unexpected error in the latter case.
func (r *Reader) probeSchema(ctx context.Context) error {
	var name string
	err := r.pool.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='Persons'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("source database schema unexpected: Persons table not found")
	}
	if err != nil {
		return fmt.Errorf("probing source schema: %w", err)
	}
	return nil
}

func classifySourceErr(err error) error {
	return fmt.Errorf("store-unreachable or schema-unexpected: %w", err)
}
