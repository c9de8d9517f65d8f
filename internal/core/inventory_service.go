package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InventoryService manages the inventory record store: grade-split stock per
// (style, warehouse type, package spec, line) tuple, lock bookkeeping, the
// append-only transaction ledger, and the audit log.
//
// Every mutating operation runs in its own transaction and takes a FOR UPDATE
// row lock on the record, so writes to one key tuple are serialized while
// different tuples proceed independently.
type InventoryService interface {
	// StockIn adds quantity to one grade, creating the record if absent.
	// Appends an IN ledger entry and returns the new current stock.
	StockIn(ctx context.Context, key InventoryKey, qty decimal.Decimal, grade StockGrade, source, note string) (decimal.Decimal, error)
	// StockOut removes quantity from one grade. The availability check is
	// grade-level: taking 70 from grade A fails even when A+B could cover it.
	StockOut(ctx context.Context, key InventoryKey, qty decimal.Decimal, grade StockGrade, source, note string) (decimal.Decimal, error)
	// Adjust overwrites both grades (stocktake correction). Appends
	// ADJUST_IN/ADJUST_OUT ledger entries per changed grade plus an audit entry.
	Adjust(ctx context.Context, key InventoryKey, newGradeA, newGradeB decimal.Decimal, reason, actor string) (decimal.Decimal, error)
	// Lock reserves quantity against future shipment. Fails with ErrOverLock
	// when the resulting lock would exceed current stock.
	Lock(ctx context.Context, key InventoryKey, qty decimal.Decimal, reason, actor string) (decimal.Decimal, error)
	// Unlock releases locked quantity, clamped at zero. Over-unlock is not an
	// error so a safety release is idempotent.
	Unlock(ctx context.Context, key InventoryKey, qty decimal.Decimal, reason, actor string) (decimal.Decimal, error)
	// SetSafetyStock updates the alert threshold. Metadata only, no ledger entry.
	SetSafetyStock(ctx context.Context, key InventoryKey, threshold decimal.Decimal) error

	GetRecord(ctx context.Context, key InventoryKey) (*InventoryRecord, error)
	GetRecords(ctx context.Context, filter RecordFilter) ([]InventoryRecord, error)
	// GetAlerts derives safety-stock breaches fresh on every call; nothing is stored.
	GetAlerts(ctx context.Context) ([]StockAlert, error)

	GetTransactions(ctx context.Context, q TransactionQuery) ([]StockTransaction, int, error)
	GetAuditLogs(ctx context.Context, limit, offset int) ([]AuditLogEntry, error)

	// StockInTx is the TX-scoped variant used by LineService to keep a
	// production stock-in atomic with the capacity queue reset.
	StockInTx(ctx context.Context, tx pgx.Tx, key InventoryKey, qty decimal.Decimal, grade StockGrade, source, note string) (decimal.Decimal, error)
	// ShipStockTx drains an order's demand from one warehouse regime within the
	// caller's TX, grade A first, across all records matching the style and
	// line restriction. Used by OrderService on the transition into Shipped.
	ShipStockTx(ctx context.Context, tx pgx.Tx, styleNo string, regime WarehouseType, lineIDs []int, qty decimal.Decimal, note string) error
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

// RecordFilter narrows GetRecords. Zero values mean "no restriction".
type RecordFilter struct {
	StyleNo       string
	WarehouseType WarehouseType
	PackageSpec   PackageSpec
	LineID        int
}

const recordColumns = `id, style_no, warehouse_type, package_spec, line_id,
	grade_a, grade_b, current_stock, locked_for_today, safety_stock, created_at, updated_at`

func scanRecord(row pgx.Row) (*InventoryRecord, error) {
	var r InventoryRecord
	err := row.Scan(&r.ID, &r.Key.StyleNo, &r.Key.WarehouseType, &r.Key.PackageSpec, &r.Key.LineID,
		&r.GradeA, &r.GradeB, &r.CurrentStock, &r.LockedForToday, &r.SafetyStock, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// lockRecordTx takes the per-tuple row lock and returns the current state.
func lockRecordTx(ctx context.Context, tx pgx.Tx, key InventoryKey) (*InventoryRecord, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM inventory_records
		WHERE style_no = $1 AND warehouse_type = $2 AND package_spec = $3 AND line_id = $4
		FOR UPDATE
	`, key.StyleNo, key.WarehouseType, key.PackageSpec, key.LineID)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: inventory record %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to lock inventory record %s: %w", key, err)
	}
	return r, nil
}

// writeRecordTx persists new grade values, recomputing current_stock and
// clamping locked_for_today to the new stock level. Clamping here means every
// stock-decreasing path enforces the lock bound in one place.
func writeRecordTx(ctx context.Context, tx pgx.Tx, id int, gradeA, gradeB, locked decimal.Decimal) (decimal.Decimal, error) {
	current := gradeA.Add(gradeB)
	if locked.GreaterThan(current) {
		locked = current
	}
	_, err := tx.Exec(ctx, `
		UPDATE inventory_records
		SET grade_a = $1, grade_b = $2, current_stock = $3, locked_for_today = $4, updated_at = NOW()
		WHERE id = $5
	`, gradeA, gradeB, current, locked, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update inventory record %d: %w", id, err)
	}
	return current, nil
}

// appendTransactionTx inserts one immutable ledger entry.
func appendTransactionTx(ctx context.Context, tx pgx.Tx, key InventoryKey, txType TransactionType,
	grade StockGrade, qty, balance decimal.Decimal, source, note string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_transactions (style_no, warehouse_type, package_spec, line_id, tx_type, grade, quantity, balance, source, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, key.StyleNo, key.WarehouseType, key.PackageSpec, key.LineID, txType, grade, qty, balance, source, note)
	if err != nil {
		return fmt.Errorf("failed to append %s transaction for %s: %w", txType, key, err)
	}
	return nil
}

func appendAuditTx(ctx context.Context, tx pgx.Tx, key InventoryKey, action string,
	beforeA, beforeB, afterA, afterB decimal.Decimal, reason, actor string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_logs (style_no, warehouse_type, package_spec, line_id, action,
			before_grade_a, before_grade_b, after_grade_a, after_grade_b, reason, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, key.StyleNo, key.WarehouseType, key.PackageSpec, key.LineID, action,
		beforeA, beforeB, afterA, afterB, reason, actor)
	if err != nil {
		return fmt.Errorf("failed to append audit entry for %s: %w", key, err)
	}
	return nil
}

// ── Stock movements ───────────────────────────────────────────────────────────

func (s *inventoryService) StockIn(ctx context.Context, key InventoryKey, qty decimal.Decimal, grade StockGrade, source, note string) (decimal.Decimal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	balance, err := s.StockInTx(ctx, tx, key, qty, grade, source, note)
	if err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit stock-in: %w", err)
	}
	return balance, nil
}

func (s *inventoryService) StockInTx(ctx context.Context, tx pgx.Tx, key InventoryKey, qty decimal.Decimal, grade StockGrade, source, note string) (decimal.Decimal, error) {
	if err := key.Validate(); err != nil {
		return decimal.Zero, err
	}
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: stock-in quantity must be positive, got %s", ErrValidation, qty)
	}
	if grade != GradeA && grade != GradeB {
		return decimal.Zero, fmt.Errorf("%w: unknown grade %q", ErrValidation, grade)
	}

	// Create the record zero-initialized on first stock-in for a new tuple,
	// then take the row lock.
	var id int
	err := tx.QueryRow(ctx, `
		INSERT INTO inventory_records (style_no, warehouse_type, package_spec, line_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (style_no, warehouse_type, package_spec, line_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, key.StyleNo, key.WarehouseType, key.PackageSpec, key.LineID).Scan(&id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to upsert inventory record %s: %w", key, err)
	}

	rec, err := lockRecordTx(ctx, tx, key)
	if err != nil {
		return decimal.Zero, err
	}

	gradeA, gradeB := rec.GradeA, rec.GradeB
	if grade == GradeA {
		gradeA = gradeA.Add(qty)
	} else {
		gradeB = gradeB.Add(qty)
	}

	balance, err := writeRecordTx(ctx, tx, rec.ID, gradeA, gradeB, rec.LockedForToday)
	if err != nil {
		return decimal.Zero, err
	}
	if err := appendTransactionTx(ctx, tx, key, TxIn, grade, qty, balance, source, note); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *inventoryService) StockOut(ctx context.Context, key InventoryKey, qty decimal.Decimal, grade StockGrade, source, note string) (decimal.Decimal, error) {
	if err := key.Validate(); err != nil {
		return decimal.Zero, err
	}
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: stock-out quantity must be positive, got %s", ErrValidation, qty)
	}
	if grade != GradeA && grade != GradeB {
		return decimal.Zero, fmt.Errorf("%w: unknown grade %q", ErrValidation, grade)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := lockRecordTx(ctx, tx, key)
	if err != nil {
		return decimal.Zero, err
	}

	gradeA, gradeB := rec.GradeA, rec.GradeB
	if grade == GradeA {
		if qty.GreaterThan(gradeA) {
			return decimal.Zero, fmt.Errorf("%w: grade A of %s has %s, requested %s",
				ErrInsufficientStock, key, gradeA, qty)
		}
		gradeA = gradeA.Sub(qty)
	} else {
		if qty.GreaterThan(gradeB) {
			return decimal.Zero, fmt.Errorf("%w: grade B of %s has %s, requested %s",
				ErrInsufficientStock, key, gradeB, qty)
		}
		gradeB = gradeB.Sub(qty)
	}

	balance, err := writeRecordTx(ctx, tx, rec.ID, gradeA, gradeB, rec.LockedForToday)
	if err != nil {
		return decimal.Zero, err
	}
	if err := appendTransactionTx(ctx, tx, key, TxOut, grade, qty, balance, source, note); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit stock-out: %w", err)
	}
	return balance, nil
}

func (s *inventoryService) Adjust(ctx context.Context, key InventoryKey, newGradeA, newGradeB decimal.Decimal, reason, actor string) (decimal.Decimal, error) {
	if err := key.Validate(); err != nil {
		return decimal.Zero, err
	}
	if newGradeA.IsNegative() || newGradeB.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: adjusted grade values cannot be negative (A=%s, B=%s)",
			ErrValidation, newGradeA, newGradeB)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := lockRecordTx(ctx, tx, key)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := writeRecordTx(ctx, tx, rec.ID, newGradeA, newGradeB, rec.LockedForToday)
	if err != nil {
		return decimal.Zero, err
	}

	// One ledger entry per grade whose value changed, classified by that
	// grade's delta. Signed replay across both entries reproduces the new
	// balance even when the grades move in opposite directions.
	note := fmt.Sprintf("stocktake adjustment: %s", reason)
	for _, g := range []struct {
		grade StockGrade
		delta decimal.Decimal
	}{
		{GradeA, newGradeA.Sub(rec.GradeA)},
		{GradeB, newGradeB.Sub(rec.GradeB)},
	} {
		if g.delta.IsZero() {
			continue
		}
		txType := TxAdjustIn
		if g.delta.IsNegative() {
			txType = TxAdjustOut
		}
		if err := appendTransactionTx(ctx, tx, key, txType, g.grade, g.delta.Abs(), balance, "adjust", note); err != nil {
			return decimal.Zero, err
		}
	}

	if err := appendAuditTx(ctx, tx, key, "adjust", rec.GradeA, rec.GradeB, newGradeA, newGradeB, reason, actor); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit adjustment: %w", err)
	}
	return balance, nil
}

// ── Locking ───────────────────────────────────────────────────────────────────

func (s *inventoryService) Lock(ctx context.Context, key InventoryKey, qty decimal.Decimal, reason, actor string) (decimal.Decimal, error) {
	if err := key.Validate(); err != nil {
		return decimal.Zero, err
	}
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: lock quantity must be positive, got %s", ErrValidation, qty)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := lockRecordTx(ctx, tx, key)
	if err != nil {
		return decimal.Zero, err
	}

	newLocked := rec.LockedForToday.Add(qty)
	if newLocked.GreaterThan(rec.CurrentStock) {
		return decimal.Zero, fmt.Errorf("%w: %s has %s in stock, %s already locked, cannot lock %s more",
			ErrOverLock, key, rec.CurrentStock, rec.LockedForToday, qty)
	}

	if err := s.setLockedTx(ctx, tx, rec, newLocked, "lock", reason, actor); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit lock: %w", err)
	}
	return newLocked, nil
}

func (s *inventoryService) Unlock(ctx context.Context, key InventoryKey, qty decimal.Decimal, reason, actor string) (decimal.Decimal, error) {
	if err := key.Validate(); err != nil {
		return decimal.Zero, err
	}
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: unlock quantity must be positive, got %s", ErrValidation, qty)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := lockRecordTx(ctx, tx, key)
	if err != nil {
		return decimal.Zero, err
	}

	// Clamped, never negative: releasing more than is locked is a no-op
	// remainder, so a retried release stays safe.
	newLocked := rec.LockedForToday.Sub(qty)
	if newLocked.IsNegative() {
		newLocked = decimal.Zero
	}

	if err := s.setLockedTx(ctx, tx, rec, newLocked, "unlock", reason, actor); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit unlock: %w", err)
	}
	return newLocked, nil
}

func (s *inventoryService) setLockedTx(ctx context.Context, tx pgx.Tx, rec *InventoryRecord, newLocked decimal.Decimal, action, reason, actor string) error {
	_, err := tx.Exec(ctx, `
		UPDATE inventory_records SET locked_for_today = $1, updated_at = NOW() WHERE id = $2
	`, newLocked, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update lock for %s: %w", rec.Key, err)
	}
	return appendAuditTx(ctx, tx, rec.Key, action, rec.GradeA, rec.GradeB, rec.GradeA, rec.GradeB, reason, actor)
}

func (s *inventoryService) SetSafetyStock(ctx context.Context, key InventoryKey, threshold decimal.Decimal) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if threshold.IsNegative() {
		return fmt.Errorf("%w: safety stock threshold cannot be negative, got %s", ErrValidation, threshold)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE inventory_records SET safety_stock = $1, updated_at = NOW()
		WHERE style_no = $2 AND warehouse_type = $3 AND package_spec = $4 AND line_id = $5
	`, threshold, key.StyleNo, key.WarehouseType, key.PackageSpec, key.LineID)
	if err != nil {
		return fmt.Errorf("failed to set safety stock for %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: inventory record %s", ErrNotFound, key)
	}
	return nil
}

// ── Shipment ──────────────────────────────────────────────────────────────────

// ShipStockTx drains qty from the given regime's matching records, grade A
// before grade B within each record, oldest record first. The whole drain
// fails with ErrInsufficientStock when the regime cannot cover the demand,
// leaving the caller's transaction to roll back.
func (s *inventoryService) ShipStockTx(ctx context.Context, tx pgx.Tx, styleNo string, regime WarehouseType, lineIDs []int, qty decimal.Decimal, note string) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: shipment quantity must be positive, got %s", ErrValidation, qty)
	}

	query := `
		SELECT ` + recordColumns + `
		FROM inventory_records
		WHERE style_no = $1 AND warehouse_type = $2 AND current_stock > 0
	`
	args := []any{styleNo, regime}
	if len(lineIDs) > 0 {
		// Unscoped records (line_id = 0) serve any order.
		query += " AND (line_id = 0 OR line_id = ANY($3))"
		args = append(args, lineIDs)
	}
	query += " ORDER BY id FOR UPDATE"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to lock %s records for shipment of %s: %w", regime, styleNo, err)
	}
	var records []InventoryRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, *r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating inventory records: %w", err)
	}

	remaining := qty
	for _, rec := range records {
		if !remaining.IsPositive() {
			break
		}
		gradeA, gradeB := rec.GradeA, rec.GradeB

		takeA := decimal.Min(gradeA, remaining)
		gradeA = gradeA.Sub(takeA)
		remaining = remaining.Sub(takeA)

		takeB := decimal.Min(gradeB, remaining)
		gradeB = gradeB.Sub(takeB)
		remaining = remaining.Sub(takeB)

		if takeA.IsZero() && takeB.IsZero() {
			continue
		}

		balance, err := writeRecordTx(ctx, tx, rec.ID, gradeA, gradeB, rec.LockedForToday)
		if err != nil {
			return err
		}
		if takeA.IsPositive() {
			if err := appendTransactionTx(ctx, tx, rec.Key, TxOut, GradeA, takeA, balance, "shipment", note); err != nil {
				return err
			}
		}
		if takeB.IsPositive() {
			if err := appendTransactionTx(ctx, tx, rec.Key, TxOut, GradeB, takeB, balance, "shipment", note); err != nil {
				return err
			}
		}
	}

	if remaining.IsPositive() {
		return fmt.Errorf("%w: %s warehouse covers only %s of %s tons for style %s",
			ErrInsufficientStock, regime, qty.Sub(remaining), qty, styleNo)
	}
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *inventoryService) GetRecord(ctx context.Context, key InventoryKey) (*InventoryRecord, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM inventory_records
		WHERE style_no = $1 AND warehouse_type = $2 AND package_spec = $3 AND line_id = $4
	`, key.StyleNo, key.WarehouseType, key.PackageSpec, key.LineID)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: inventory record %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to fetch inventory record %s: %w", key, err)
	}
	return r, nil
}

func (s *inventoryService) GetRecords(ctx context.Context, filter RecordFilter) ([]InventoryRecord, error) {
	query := "SELECT " + recordColumns + " FROM inventory_records WHERE 1=1"
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.StyleNo != "" {
		query += " AND style_no = " + arg(filter.StyleNo)
	}
	if filter.WarehouseType != "" {
		query += " AND warehouse_type = " + arg(filter.WarehouseType)
	}
	if filter.PackageSpec != "" {
		query += " AND package_spec = " + arg(filter.PackageSpec)
	}
	if filter.LineID != 0 {
		query += " AND line_id = " + arg(filter.LineID)
	}
	query += " ORDER BY style_no, warehouse_type, package_spec, line_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory records: %w", err)
	}
	defer rows.Close()

	var records []InventoryRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func (s *inventoryService) GetAlerts(ctx context.Context) ([]StockAlert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT style_no, warehouse_type, package_spec, line_id, current_stock, safety_stock
		FROM inventory_records
		WHERE safety_stock > 0 AND current_stock < safety_stock
		ORDER BY style_no, warehouse_type, package_spec, line_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query safety stock alerts: %w", err)
	}
	defer rows.Close()

	var alerts []StockAlert
	for rows.Next() {
		var a StockAlert
		if err := rows.Scan(&a.Key.StyleNo, &a.Key.WarehouseType, &a.Key.PackageSpec, &a.Key.LineID,
			&a.CurrentStock, &a.SafetyStock); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Shortage = a.SafetyStock.Sub(a.CurrentStock)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
