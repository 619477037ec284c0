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

// compile-time check that *DB implements repository.DataSetRepository
var _ repository.DataSetRepository = (*DB)(nil)

// CreateDataSet inserts a new dataset. ID and pub_date are generated here
// and written back to the caller's struct.
func (db *DB) CreateDataSet(ctx context.Context, ds *model.DataSet) error {
	ds.ID = xid.New().String()
	ds.PubDate = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO datasets (id, title, format, file, description, pub_date, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ds.ID,
		ds.Title,
		ds.Format,
		ds.File,
		ds.Description,
		ds.PubDate,
		ds.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating dataset: %w", err)
	}

	return nil
}

// DeleteDataSet removes a dataset row. Its only caller is the service-level
// rollback of a creation whose file write failed, so at that point no layer
// or edge can reference the row yet.
func (db *DB) DeleteDataSet(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting dataset %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("dataset", id)
	}
	return nil
}

// GetDataSetByID retrieves a single dataset.
func (db *DB) GetDataSetByID(ctx context.Context, id string) (*model.DataSet, error) {
	var ds model.DataSet

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, format, file, description, pub_date, user_id
		 FROM datasets WHERE id = ?`,
		id,
	).Scan(
		&ds.ID,
		&ds.Title,
		&ds.Format,
		&ds.File,
		&ds.Description,
		&ds.PubDate,
		&ds.OwnerID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("dataset", id)
		}
		return nil, fmt.Errorf("sqlite: getting dataset %s: %w", id, err)
	}

	return &ds, nil
}

// CreateLayer inserts a rendering layer owned by a dataset. The dataset must
// exist (foreign key); Layout/Paint default to "{}" when empty.
func (db *DB) CreateLayer(ctx context.Context, layer *model.Layer) error {
	layer.ID = xid.New().String()

	layout := string(layer.Layout)
	if layout == "" {
		layout = "{}"
		layer.Layout = []byte(layout)
	}
	paint := string(layer.Paint)
	if paint == "" {
		paint = "{}"
		layer.Paint = []byte(paint)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO layers (id, dataset_id, type, source_layer, layout, paint)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		layer.ID,
		layer.DataSetID,
		layer.Type,
		layer.SourceLayer,
		layout,
		paint,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating layer: %w", err)
	}

	return nil
}

// GetLayerByID retrieves a layer with its popups.
func (db *DB) GetLayerByID(ctx context.Context, id string) (*model.Layer, error) {
	var (
		l             model.Layer
		layout, paint string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, dataset_id, type, source_layer, layout, paint
		 FROM layers WHERE id = ?`,
		id,
	).Scan(&l.ID, &l.DataSetID, &l.Type, &l.SourceLayer, &layout, &paint)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("layer", id)
		}
		return nil, fmt.Errorf("sqlite: getting layer %s: %w", id, err)
	}
	l.Layout = []byte(layout)
	l.Paint = []byte(paint)

	popups, err := db.popupsForLayer(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Popups = popups

	return &l, nil
}

// CreatePopup inserts a popup under a layer. A client-supplied ID (often a
// feature ID from the source data) is kept; otherwise one is generated.
func (db *DB) CreatePopup(ctx context.Context, popup *model.Popup) error {
	if popup.ID == "" {
		popup.ID = xid.New().String()
	}

	properties := string(popup.Properties)
	if properties == "" {
		properties = "{}"
		popup.Properties = []byte(properties)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO popups (id, layer_id, title, subtitle, properties)
		 VALUES (?, ?, ?, ?, ?)`,
		popup.ID,
		popup.LayerID,
		popup.Title,
		popup.Subtitle,
		properties,
	)
	if err != nil {
		if isUniqueViolation(err, "popups.id") {
			return apperror.Conflict("popup", "id")
		}
		return fmt.Errorf("sqlite: creating popup: %w", err)
	}

	return nil
}

func (db *DB) popupsForLayer(ctx context.Context, layerID string) ([]model.Popup, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, layer_id, title, subtitle, properties
		 FROM popups WHERE layer_id = ?`,
		layerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing popups for layer %s: %w", layerID, err)
	}
	defer rows.Close()

	popups := make([]model.Popup, 0, 4)
	for rows.Next() {
		var (
			p          model.Popup
			properties string
		)
		if err := rows.Scan(&p.ID, &p.LayerID, &p.Title, &p.Subtitle, &properties); err != nil {
			return nil, fmt.Errorf("sqlite: scanning popup row: %w", err)
		}
		p.Properties = []byte(properties)
		popups = append(popups, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating popups: %w", err)
	}
	return popups, nil
}
