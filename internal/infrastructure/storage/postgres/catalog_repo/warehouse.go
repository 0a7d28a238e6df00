package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpit/internal/core/id"
	"stockpit/internal/domain/warehouse"
	"stockpit/internal/infrastructure/storage/postgres"
)

const warehousesTable = "cat_warehouses"

var _ warehouse.Repository = (*WarehouseRepo)(nil)

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewWarehouseRepo creates a new warehouses repository.
func NewWarehouseRepo(txm *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var warehouseColumns = []string{
	"id", "company_id", "code", "name", "is_active",
	"address", "created_at", "updated_at",
}

// Create inserts a warehouse.
func (r *WarehouseRepo) Create(ctx context.Context, w *warehouse.Warehouse) error {
	q := r.builder.Insert(warehousesTable).
		Columns(warehouseColumns...).
		Values(
			w.ID, w.CompanyID, w.Code, w.Name, w.IsActive,
			w.Address, w.CreatedAt, w.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "warehouse", w.ID)
	}
	return nil
}

// GetByID returns a warehouse, company-scoped.
func (r *WarehouseRepo) GetByID(ctx context.Context, companyID, warehouseID id.ID) (*warehouse.Warehouse, error) {
	sql, args, err := r.builder.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID, "company_id": companyID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var w warehouse.Warehouse
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &w, sql, args...); err != nil {
		return nil, postgres.MapError(err, "warehouse", warehouseID)
	}
	return &w, nil
}

// List returns all warehouses of a company ordered by code.
func (r *WarehouseRepo) List(ctx context.Context, companyID id.ID) ([]*warehouse.Warehouse, error) {
	sql, args, err := r.builder.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("code ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var warehouses []*warehouse.Warehouse
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &warehouses, sql, args...); err != nil {
		return nil, postgres.MapError(err, "warehouse", nil)
	}
	return warehouses, nil
}
