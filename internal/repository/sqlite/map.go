package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/repository"
)

// compile-time check that *DB implements repository.MapRepository
var _ repository.MapRepository = (*DB)(nil)

// CreateMap inserts a new map. Source/layer associations are added
// separately via AddSource/AddLayer.
func (db *DB) CreateMap(ctx context.Context, m *model.Map) error {
	m.ID = xid.New().String()
	m.PubDate = time.Now().UTC()
	if m.Style == "" {
		m.Style = model.DefaultMapStyle
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO maps (id, title, description, lat, lng, zoom, style, pub_date, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.Title,
		m.Description,
		m.Lat,
		m.Lng,
		m.Zoom,
		m.Style,
		m.PubDate,
		m.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating map: %w", err)
	}

	return nil
}

// GetMapByID retrieves a map hydrated with its source dataset IDs and layers.
func (db *DB) GetMapByID(ctx context.Context, id string) (*model.Map, error) {
	var m model.Map

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, lat, lng, zoom, style, pub_date, user_id
		 FROM maps WHERE id = ?`,
		id,
	).Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Lat,
		&m.Lng,
		&m.Zoom,
		&m.Style,
		&m.PubDate,
		&m.OwnerID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("map", id)
		}
		return nil, fmt.Errorf("sqlite: getting map %s: %w", id, err)
	}

	sourceIDs, err := db.mapSourceIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	m.SourceIDs = sourceIDs

	layers, err := db.mapLayers(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Layers = layers

	return &m, nil
}

// AddSource associates a dataset with a map. Re-adding an existing source is
// a no-op — the composite primary key absorbs the duplicate via OR IGNORE.
func (db *DB) AddSource(ctx context.Context, mapID, datasetID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO map_sources (map_id, dataset_id) VALUES (?, ?)`,
		mapID, datasetID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding source %s to map %s: %w", datasetID, mapID, err)
	}
	return nil
}

// AddLayer associates a layer with a map. The service layer has already
// verified the layer's dataset is among the map's sources.
func (db *DB) AddLayer(ctx context.Context, mapID, layerID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO map_layers (map_id, layer_id) VALUES (?, ?)`,
		mapID, layerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding layer %s to map %s: %w", layerID, mapID, err)
	}
	return nil
}

// References lists the maps that use the given dataset as a source, newest
// first.
func (db *DB) References(ctx context.Context, datasetID string) ([]model.PostSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, 'map', m.title, m.pub_date, m.user_id
		 FROM maps m
		 JOIN map_sources ms ON ms.map_id = m.id
		 WHERE ms.dataset_id = ?
		 ORDER BY m.pub_date DESC, m.id DESC`,
		datasetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing references for dataset %s: %w", datasetID, err)
	}
	return scanPostSummaries(rows)
}

func (db *DB) mapSourceIDs(ctx context.Context, mapID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT dataset_id FROM map_sources WHERE map_id = ?`, mapID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sources for map %s: %w", mapID, err)
	}
	defer rows.Close()

	ids := make([]string, 0, 4)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning source row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sources: %w", err)
	}
	return ids, nil
}

func (db *DB) mapLayers(ctx context.Context, mapID string) ([]model.Layer, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT l.id, l.dataset_id, l.type, l.source_layer, l.layout, l.paint
		 FROM layers l
		 JOIN map_layers ml ON ml.layer_id = l.id
		 WHERE ml.map_id = ?`,
		mapID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing layers for map %s: %w", mapID, err)
	}
	defer rows.Close()

	layers := make([]model.Layer, 0, 4)
	for rows.Next() {
		var (
			l             model.Layer
			layout, paint string
		)
		if err := rows.Scan(&l.ID, &l.DataSetID, &l.Type, &l.SourceLayer, &layout, &paint); err != nil {
			return nil, fmt.Errorf("sqlite: scanning layer row: %w", err)
		}
		l.Layout = []byte(layout)
		l.Paint = []byte(paint)
		layers = append(layers, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating layers: %w", err)
	}

	// Hydrate popups per layer. Maps rarely carry more than a handful of
	// layers, so N+1 here is fine.
	for i := range layers {
		popups, err := db.popupsForLayer(ctx, layers[i].ID)
		if err != nil {
			return nil, err
		}
		layers[i].Popups = popups
	}

	return layers, nil
}
