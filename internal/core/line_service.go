package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LineService manages production lines and their sub-line branches, and owns
// the "production completion → stock-in" flow.
type LineService interface {
	CreateLine(ctx context.Context, input LineInput) (*ProductLine, error)
	UpdateLine(ctx context.Context, lineID int, input LineInput) (*ProductLine, error)
	GetLine(ctx context.Context, lineID int) (*ProductLine, error)
	GetLines(ctx context.Context) ([]ProductLine, error)

	// CapacityForStyle reports the running-line capacity feeding one style.
	CapacityForStyle(ctx context.Context, styleNo string) (*StyleCapacity, error)
	// PendingStockIn lists completed production awaiting warehouse confirmation.
	PendingStockIn(ctx context.Context) ([]PendingStockIn, error)

	// ConfirmProduction consumes one pending stock-in item: the unit's export
	// capacity is reset to zero and the same quantity is stocked in under the
	// unit's current style, in a single transaction. Either both happen or
	// neither — a line's completed production can never silently disappear or
	// be double-counted. subLineID is zero for unbranched lines.
	ConfirmProduction(ctx context.Context, lineID, subLineID int, warehouse WarehouseType, spec PackageSpec, grade StockGrade) (decimal.Decimal, error)
}

// LineInput carries the mutable fields for line create/update. SubLines, when
// present, replace the line's branches wholesale.
type LineInput struct {
	Name           string
	Status         LineStatus
	CurrentStyle   string
	DailyCapacity  decimal.Decimal
	ExportCapacity decimal.Decimal
	SubLines       []SubLineInput
}

type SubLineInput struct {
	Name           string
	CurrentStyle   string
	DailyCapacity  decimal.Decimal
	ExportCapacity decimal.Decimal
}

type lineService struct {
	pool *pgxpool.Pool
	inv  InventoryService
}

func NewLineService(pool *pgxpool.Pool, inv InventoryService) LineService {
	return &lineService{pool: pool, inv: inv}
}

func (in LineInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: line name is required", ErrValidation)
	}
	switch in.Status {
	case LineRunning, LineMaintenance, LineStopped:
	default:
		return fmt.Errorf("%w: unknown line status %q", ErrValidation, in.Status)
	}
	if in.DailyCapacity.IsNegative() || in.ExportCapacity.IsNegative() {
		return fmt.Errorf("%w: line capacities cannot be negative", ErrValidation)
	}
	for _, sub := range in.SubLines {
		if sub.Name == "" {
			return fmt.Errorf("%w: sub-line name is required", ErrValidation)
		}
		if sub.DailyCapacity.IsNegative() || sub.ExportCapacity.IsNegative() {
			return fmt.Errorf("%w: sub-line capacities cannot be negative", ErrValidation)
		}
	}
	return nil
}

func (s *lineService) CreateLine(ctx context.Context, input LineInput) (*ProductLine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if input.CurrentStyle == "" {
		input.CurrentStyle = NoStyle
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lineID int
	err = tx.QueryRow(ctx, `
		INSERT INTO product_lines (name, status, current_style, daily_capacity, export_capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, input.Name, input.Status, input.CurrentStyle, input.DailyCapacity, input.ExportCapacity).Scan(&lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product line: %w", err)
	}

	if err := replaceSubLinesTx(ctx, tx, lineID, input.SubLines); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line creation: %w", err)
	}
	return s.GetLine(ctx, lineID)
}

func (s *lineService) UpdateLine(ctx context.Context, lineID int, input LineInput) (*ProductLine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if input.CurrentStyle == "" {
		input.CurrentStyle = NoStyle
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE product_lines
		SET name = $1, status = $2, current_style = $3, daily_capacity = $4, export_capacity = $5, updated_at = NOW()
		WHERE id = $6
	`, input.Name, input.Status, input.CurrentStyle, input.DailyCapacity, input.ExportCapacity, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to update product line %d: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: product line %d", ErrNotFound, lineID)
	}

	if err := replaceSubLinesTx(ctx, tx, lineID, input.SubLines); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line update: %w", err)
	}
	return s.GetLine(ctx, lineID)
}

func replaceSubLinesTx(ctx context.Context, tx pgx.Tx, lineID int, subs []SubLineInput) error {
	if _, err := tx.Exec(ctx, "DELETE FROM line_branches WHERE line_id = $1", lineID); err != nil {
		return fmt.Errorf("failed to clear sub-lines for line %d: %w", lineID, err)
	}
	for _, sub := range subs {
		style := sub.CurrentStyle
		if style == "" {
			style = NoStyle
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO line_branches (line_id, name, current_style, daily_capacity, export_capacity)
			VALUES ($1, $2, $3, $4, $5)
		`, lineID, sub.Name, style, sub.DailyCapacity, sub.ExportCapacity)
		if err != nil {
			return fmt.Errorf("failed to insert sub-line %q for line %d: %w", sub.Name, lineID, err)
		}
	}
	return nil
}

func (s *lineService) GetLine(ctx context.Context, lineID int) (*ProductLine, error) {
	var l ProductLine
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, status, current_style, daily_capacity, export_capacity, created_at, updated_at
		FROM product_lines WHERE id = $1
	`, lineID).Scan(&l.ID, &l.Name, &l.Status, &l.CurrentStyle, &l.DailyCapacity, &l.ExportCapacity, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product line %d", ErrNotFound, lineID)
		}
		return nil, fmt.Errorf("failed to fetch product line %d: %w", lineID, err)
	}

	subs, err := s.fetchSubLines(ctx, lineID)
	if err != nil {
		return nil, err
	}
	l.SubLines = subs
	return &l, nil
}

func (s *lineService) fetchSubLines(ctx context.Context, lineID int) ([]SubLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, current_style, daily_capacity, export_capacity
		FROM line_branches WHERE line_id = $1 ORDER BY id
	`, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-lines for line %d: %w", lineID, err)
	}
	defer rows.Close()

	var subs []SubLine
	for rows.Next() {
		var sub SubLine
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.CurrentStyle, &sub.DailyCapacity, &sub.ExportCapacity); err != nil {
			return nil, fmt.Errorf("failed to scan sub-line: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *lineService) GetLines(ctx context.Context) ([]ProductLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, status, current_style, daily_capacity, export_capacity, created_at, updated_at
		FROM product_lines ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product lines: %w", err)
	}
	defer rows.Close()

	var lines []ProductLine
	for rows.Next() {
		var l ProductLine
		if err := rows.Scan(&l.ID, &l.Name, &l.Status, &l.CurrentStyle, &l.DailyCapacity, &l.ExportCapacity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One query for all branches beats a query per line on the dashboard path.
	branchRows, err := s.pool.Query(ctx, `
		SELECT line_id, id, name, current_style, daily_capacity, export_capacity
		FROM line_branches ORDER BY line_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-lines: %w", err)
	}
	defer branchRows.Close()

	byLine := make(map[int][]SubLine)
	for branchRows.Next() {
		var lineID int
		var sub SubLine
		if err := branchRows.Scan(&lineID, &sub.ID, &sub.Name, &sub.CurrentStyle, &sub.DailyCapacity, &sub.ExportCapacity); err != nil {
			return nil, fmt.Errorf("failed to scan sub-line: %w", err)
		}
		byLine[lineID] = append(byLine[lineID], sub)
	}
	if err := branchRows.Err(); err != nil {
		return nil, err
	}

	for i := range lines {
		lines[i].SubLines = byLine[lines[i].ID]
	}
	return lines, nil
}

func (s *lineService) CapacityForStyle(ctx context.Context, styleNo string) (*StyleCapacity, error) {
	lines, err := s.GetLines(ctx)
	if err != nil {
		return nil, err
	}
	agg := CapacityForStyle(lines, styleNo)
	return &agg, nil
}

func (s *lineService) PendingStockIn(ctx context.Context) ([]PendingStockIn, error) {
	lines, err := s.GetLines(ctx)
	if err != nil {
		return nil, err
	}
	return PendingStockInQueue(lines), nil
}

func (s *lineService) ConfirmProduction(ctx context.Context, lineID, subLineID int, warehouse WarehouseType, spec PackageSpec, grade StockGrade) (decimal.Decimal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the line row first so concurrent confirmations of the same unit
	// serialize; the second one finds export_capacity already at zero.
	var status LineStatus
	var lineName string
	err = tx.QueryRow(ctx,
		"SELECT name, status FROM product_lines WHERE id = $1 FOR UPDATE",
		lineID,
	).Scan(&lineName, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: product line %d", ErrNotFound, lineID)
		}
		return decimal.Zero, fmt.Errorf("failed to lock product line %d: %w", lineID, err)
	}
	if status != LineRunning {
		return decimal.Zero, fmt.Errorf("%w: line %s is %s, only running lines can confirm production",
			ErrValidation, lineName, status)
	}

	var styleNo string
	var qty decimal.Decimal
	if subLineID == 0 {
		err = tx.QueryRow(ctx,
			"SELECT current_style, export_capacity FROM product_lines WHERE id = $1",
			lineID,
		).Scan(&styleNo, &qty)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to read line %d capacity: %w", lineID, err)
		}
	} else {
		err = tx.QueryRow(ctx,
			"SELECT current_style, export_capacity FROM line_branches WHERE id = $1 AND line_id = $2",
			subLineID, lineID,
		).Scan(&styleNo, &qty)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return decimal.Zero, fmt.Errorf("%w: sub-line %d of line %d", ErrNotFound, subLineID, lineID)
			}
			return decimal.Zero, fmt.Errorf("failed to read sub-line %d capacity: %w", subLineID, err)
		}
	}

	if styleNo == NoStyle || styleNo == "" {
		return decimal.Zero, fmt.Errorf("%w: line %s is not producing any style", ErrValidation, lineName)
	}
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: line %s has no export capacity pending stock-in", ErrValidation, lineName)
	}

	// Reset the queue item and book the stock-in in the same transaction.
	if subLineID == 0 {
		_, err = tx.Exec(ctx,
			"UPDATE product_lines SET export_capacity = 0, updated_at = NOW() WHERE id = $1", lineID)
	} else {
		_, err = tx.Exec(ctx,
			"UPDATE line_branches SET export_capacity = 0 WHERE id = $1", subLineID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to reset export capacity for line %d: %w", lineID, err)
	}

	key := InventoryKey{StyleNo: styleNo, WarehouseType: warehouse, PackageSpec: spec, LineID: lineID}
	note := fmt.Sprintf("production stock-in confirmed from %s", lineName)
	balance, err := s.inv.StockInTx(ctx, tx, key, qty, grade, SourceProduction, note)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit production confirmation: %w", err)
	}
	return balance, nil
}
