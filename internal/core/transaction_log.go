package core

import (
	"context"
	"fmt"
	"time"
)

// TransactionQuery filters the append-only stock transaction ledger.
// Zero values mean "no restriction". Limit defaults to 50, capped at 500.
type TransactionQuery struct {
	StyleNo       string
	WarehouseType WarehouseType
	PackageSpec   PackageSpec
	LineID        int
	Type          TransactionType
	From          time.Time
	To            time.Time
	Limit         int
	Offset        int
}

// GetTransactions returns ledger entries newest first plus the total match
// count for pagination. The ledger exposes no update or delete anywhere;
// a mistaken entry is corrected by a compensating transaction.
func (s *inventoryService) GetTransactions(ctx context.Context, q TransactionQuery) ([]StockTransaction, int, error) {
	where := " WHERE 1=1"
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.StyleNo != "" {
		where += " AND style_no = " + arg(q.StyleNo)
	}
	if q.WarehouseType != "" {
		where += " AND warehouse_type = " + arg(q.WarehouseType)
	}
	if q.PackageSpec != "" {
		where += " AND package_spec = " + arg(q.PackageSpec)
	}
	if q.LineID != 0 {
		where += " AND line_id = " + arg(q.LineID)
	}
	if q.Type != "" {
		where += " AND tx_type = " + arg(q.Type)
	}
	if !q.From.IsZero() {
		where += " AND created_at >= " + arg(q.From)
	}
	if !q.To.IsZero() {
		where += " AND created_at < " + arg(q.To)
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_transactions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, style_no, warehouse_type, package_spec, line_id, tx_type, grade, quantity, balance, source, note, created_at
		FROM stock_transactions` + where +
		" ORDER BY id DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var entries []StockTransaction
	for rows.Next() {
		var e StockTransaction
		if err := rows.Scan(&e.ID, &e.Key.StyleNo, &e.Key.WarehouseType, &e.Key.PackageSpec, &e.Key.LineID,
			&e.Type, &e.Grade, &e.Quantity, &e.Balance, &e.Source, &e.Note, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *inventoryService) GetAuditLogs(ctx context.Context, limit, offset int) ([]AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, style_no, warehouse_type, package_spec, line_id, action,
		       before_grade_a, before_grade_b, after_grade_a, after_grade_b, reason, actor, created_at
		FROM audit_logs
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []AuditLogEntry
	for rows.Next() {
		var e AuditLogEntry
		if err := rows.Scan(&e.ID, &e.Key.StyleNo, &e.Key.WarehouseType, &e.Key.PackageSpec, &e.Key.LineID,
			&e.Action, &e.BeforeGradeA, &e.BeforeGradeB, &e.AfterGradeA, &e.AfterGradeB,
			&e.Reason, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
