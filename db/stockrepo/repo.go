package stockrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"

	"github.com/livecart/stock-engine/core"
	"github.com/livecart/stock-engine/core/stock"
	"github.com/livecart/stock-engine/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) stock.Repository {
	return &dbRepo{
		conn: conn,
	}
}

func (d *dbRepo) SaveProduct(ctx context.Context, product *stock.Product, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveProduct")
	tx := db.GetUpdateOptions(d.conn, options...)

	err := tx.QueryRow(ctx, `
		INSERT INTO products (owner_id, sku, name, stock, reserved, created)
		     VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, sku) DO UPDATE SET name = $3
		  RETURNING id, stock, reserved;`,
		product.OwnerID, product.Sku, product.Name, product.Stock, product.Reserved, product.Created).
		Scan(&product.ID, &product.Stock, &product.Reserved)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}

	m.Complete(nil)
	return nil
}

func (d *dbRepo) GetProduct(ctx context.Context, ownerID, productID int64, options ...core.QueryOptions) (stock.Product, error) {
	m := db.StartMetric("GetProduct")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	product := stock.Product{}
	err := tx.QueryRow(ctx,
		`SELECT id, owner_id, sku, name, stock, reserved, created FROM products WHERE owner_id = $1 AND id = $2 `+forUpdate,
		ownerID, productID).
		Scan(&product.ID, &product.OwnerID, &product.Sku, &product.Name, &product.Stock, &product.Reserved, &product.Created)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return product, errors.WithStack(stock.ErrProductNotFound)
		}
		return product, errors.WithStack(err)
	}

	m.Complete(nil)
	return product, nil
}

func (d *dbRepo) GetAllProducts(ctx context.Context, ownerID int64, limit, offset int, options ...core.QueryOptions) ([]stock.Product, error) {
	m := db.StartMetric("GetAllProducts")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	products := make([]stock.Product, 0)
	rows, err := tx.Query(ctx,
		`SELECT id, owner_id, sku, name, stock, reserved, created FROM products WHERE owner_id = $1 ORDER BY id LIMIT $2 OFFSET $3 `+forUpdate,
		ownerID, limit, offset)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		product := stock.Product{}
		err = rows.Scan(&product.ID, &product.OwnerID, &product.Sku, &product.Name, &product.Stock, &product.Reserved, &product.Created)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		products = append(products, product)
	}

	m.Complete(nil)
	return products, nil
}

func (d *dbRepo) SaveProductCounters(ctx context.Context, product stock.Product, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveProductCounters")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `
		UPDATE products
		   SET stock = $3, reserved = $4
		 WHERE owner_id = $1 AND id = $2;`,
		product.OwnerID, product.ID, product.Stock, product.Reserved)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		m.Complete(stock.ErrProductNotFound)
		return errors.WithStack(stock.ErrProductNotFound)
	}

	m.Complete(nil)
	return nil
}

func (d *dbRepo) GetReservation(ctx context.Context, ownerID int64, ID uint64, options ...core.QueryOptions) (stock.Reservation, error) {
	m := db.StartMetric("GetReservation")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	r := stock.Reservation{}
	err := tx.QueryRow(ctx,
		`SELECT id, owner_id, product_id, client_id, quantity, status, source, source_key, reserved_at, committed_at, released_at
		   FROM reservations WHERE owner_id = $1 AND id = $2 `+forUpdate,
		ownerID, ID).
		Scan(&r.ID, &r.OwnerID, &r.ProductID, &r.ClientID, &r.Quantity, &r.Status, &r.Source, &r.SourceKey,
			&r.ReservedAt, &r.CommittedAt, &r.ReleasedAt)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return r, errors.WithStack(core.ErrNotFound)
		}
		return r, errors.WithStack(err)
	}

	m.Complete(nil)
	return r, nil
}

func (d *dbRepo) GetActiveBySource(ctx context.Context, ownerID int64, source, sourceKey string, options ...core.QueryOptions) ([]stock.Reservation, error) {
	m := db.StartMetric("GetActiveBySource")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	reservations := make([]stock.Reservation, 0)
	rows, err := tx.Query(ctx,
		`SELECT id, owner_id, product_id, client_id, quantity, status, source, source_key, reserved_at, committed_at, released_at
		   FROM reservations
		  WHERE owner_id = $1 AND source = $2 AND source_key = $3 AND status = 'reserved'
		  ORDER BY reserved_at ASC `+forUpdate,
		ownerID, source, sourceKey)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		r := stock.Reservation{}
		err = rows.Scan(&r.ID, &r.OwnerID, &r.ProductID, &r.ClientID, &r.Quantity, &r.Status, &r.Source, &r.SourceKey,
			&r.ReservedAt, &r.CommittedAt, &r.ReleasedAt)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		reservations = append(reservations, r)
	}

	m.Complete(nil)
	return reservations, nil
}

func (d *dbRepo) SaveReservation(ctx context.Context, r *stock.Reservation, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveReservation")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO reservations (owner_id, product_id, client_id, quantity, status, source, source_key, reserved_at)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id;`
	err := tx.QueryRow(ctx, insert,
		r.OwnerID, r.ProductID, r.ClientID, r.Quantity, r.Status, r.Source, r.SourceKey, r.ReservedAt).
		Scan(&r.ID)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}

	m.Complete(nil)
	return nil
}

// TransitionReservation is a conditional update: the row must still be in the
// reserved state, which is what makes the one-way state machine one-way even
// if two callers race on the same id.
func (d *dbRepo) TransitionReservation(ctx context.Context, ownerID int64, ID uint64, to stock.ReservationStatus, at time.Time, options ...core.UpdateOptions) error {
	m := db.StartMetric("TransitionReservation")
	tx := db.GetUpdateOptions(d.conn, options...)

	var update string
	switch to {
	case stock.StatusCommitted:
		update = `UPDATE reservations SET status = $3, committed_at = $4 WHERE owner_id = $1 AND id = $2 AND status = 'reserved';`
	case stock.StatusReleased:
		update = `UPDATE reservations SET status = $3, released_at = $4 WHERE owner_id = $1 AND id = $2 AND status = 'reserved';`
	default:
		m.Complete(stock.ErrInvalidReservationState)
		return errors.WithStack(stock.ErrInvalidReservationState)
	}

	ct, err := tx.Exec(ctx, update, ownerID, ID, to, at)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		m.Complete(stock.ErrInvalidReservationState)
		return errors.WithStack(stock.ErrInvalidReservationState)
	}

	m.Complete(nil)
	return nil
}

func (d *dbRepo) SaveMovement(ctx context.Context, movement *stock.Movement, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveMovement")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO stock_movements (owner_id, product_id, movement_type, quantity, source, source_key, metadata, created)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id;`
	err := tx.QueryRow(ctx, insert,
		movement.OwnerID, movement.ProductID, movement.Type, movement.Quantity,
		movement.Source, movement.SourceKey, movement.Metadata, movement.Created).
		Scan(&movement.ID)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}

	m.Complete(nil)
	return nil
}

func (d *dbRepo) GetMovements(ctx context.Context, ownerID, productID int64, limit, offset int, options ...core.QueryOptions) ([]stock.Movement, error) {
	m := db.StartMetric("GetMovements")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	movements := make([]stock.Movement, 0)
	rows, err := tx.Query(ctx,
		`SELECT id, owner_id, product_id, movement_type, quantity, source, source_key, metadata, created
		   FROM stock_movements
		  WHERE owner_id = $1 AND product_id = $2
		  ORDER BY created DESC LIMIT $3 OFFSET $4 `+forUpdate,
		ownerID, productID, limit, offset)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		mv := stock.Movement{}
		err = rows.Scan(&mv.ID, &mv.OwnerID, &mv.ProductID, &mv.Type, &mv.Quantity, &mv.Source, &mv.SourceKey,
			&mv.Metadata, &mv.Created)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		movements = append(movements, mv)
	}

	m.Complete(nil)
	return movements, nil
}

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	tx, err := d.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
