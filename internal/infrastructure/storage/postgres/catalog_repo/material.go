// Package catalog_repo provides the PostgreSQL implementations of the
// catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/material"
	"stockpit/internal/infrastructure/storage/postgres"
)

const materialsTable = "cat_materials"

var _ material.Repository = (*MaterialRepo)(nil)

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMaterialRepo creates a new materials repository.
func NewMaterialRepo(txm *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var materialColumns = []string{
	"id", "company_id", "code", "name", "is_active",
	"unit", "price", "created_at", "updated_at",
}

// Create inserts a material.
func (r *MaterialRepo) Create(ctx context.Context, m *material.Material) error {
	q := r.builder.Insert(materialsTable).
		Columns(materialColumns...).
		Values(
			m.ID, m.CompanyID, m.Code, m.Name, m.IsActive,
			m.Unit, m.Price, m.CreatedAt, m.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "material", m.ID)
	}
	return nil
}

// Update persists changes to a material.
func (r *MaterialRepo) Update(ctx context.Context, m *material.Material) error {
	q := r.builder.Update(materialsTable).
		Set("name", m.Name).
		Set("is_active", m.IsActive).
		Set("unit", m.Unit).
		Set("price", m.Price).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": m.ID, "company_id": m.CompanyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "material", m.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("material", m.ID)
	}
	return nil
}

// GetByID returns a material, company-scoped.
func (r *MaterialRepo) GetByID(ctx context.Context, companyID, materialID id.ID) (*material.Material, error) {
	return r.getOne(ctx, squirrel.Eq{"id": materialID, "company_id": companyID}, materialID)
}

// GetByCode returns a material by catalog code.
func (r *MaterialRepo) GetByCode(ctx context.Context, companyID id.ID, code string) (*material.Material, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code, "company_id": companyID}, code)
}

func (r *MaterialRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*material.Material, error) {
	sql, args, err := r.builder.Select(materialColumns...).
		From(materialsTable).
		Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var m material.Material
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		return nil, postgres.MapError(err, "material", key)
	}
	return &m, nil
}

// List returns all materials of a company ordered by code.
func (r *MaterialRepo) List(ctx context.Context, companyID id.ID) ([]*material.Material, error) {
	sql, args, err := r.builder.Select(materialColumns...).
		From(materialsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("code ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var materials []*material.Material
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &materials, sql, args...); err != nil {
		return nil, postgres.MapError(err, "material", nil)
	}
	return materials, nil
}
