package repository

import (
	"context"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type CatalogFilter struct {
	Category           models.Category
	SpecialOnly        bool
	IncludeUnavailable bool
}

type CatalogRepository interface {
	Create(ctx context.Context, item *models.CatalogItem) error
	GetByID(ctx context.Context, id uint) (*models.CatalogItem, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.CatalogItem, error)
	List(ctx context.Context, filter CatalogFilter) ([]models.CatalogItem, error)
	Update(ctx context.Context, item *models.CatalogItem) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) Create(ctx context.Context, item *models.CatalogItem) error {
	return translateError(r.db.WithContext(ctx).Create(item).Error)
}

func (r *catalogRepository) GetByID(ctx context.Context, id uint) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (r *catalogRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, translateError(err)
}

func (r *catalogRepository) List(ctx context.Context, filter CatalogFilter) ([]models.CatalogItem, error) {
	query := r.db.WithContext(ctx)
	if !filter.IncludeUnavailable {
		query = query.Where("is_available = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.SpecialOnly {
		query = query.Where("is_special = ?", true)
	}

	var items []models.CatalogItem
	err := query.Order("created_at DESC").Find(&items).Error
	return items, translateError(err)
}

func (r *catalogRepository) Update(ctx context.Context, item *models.CatalogItem) error {
	return translateError(r.db.WithContext(ctx).Save(item).Error)
}

func (r *catalogRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.CatalogItem{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CatalogItem{}).Count(&n).Error
	return n, translateError(err)
}
