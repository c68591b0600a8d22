package converter

import (
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
)

type ProductConverter interface {
	ToRedisModel(entity *domain.Product, cachedAt time.Time) *ProductRedisModel
	ToEntity(model *ProductRedisModel) *domain.Product
}

type ProductConverterImpl struct{}

func (ProductConverterImpl) ToRedisModel(entity *domain.Product, cachedAt time.Time) *ProductRedisModel {
	return &ProductRedisModel{
		ID:           entity.ID,
		Name:         entity.Name,
		CategoryID:   entity.CategoryID,
		CategoryName: entity.CategoryName,
		Price:        entity.Price,
		Stock:        entity.Stock,
		MinStock:     entity.MinStock,
		ExpiryDate:   entity.ExpiryDate,
		CachedAt:     cachedAt,
	}
}

func (ProductConverterImpl) ToEntity(model *ProductRedisModel) *domain.Product {
	return &domain.Product{
		ID:           model.ID,
		Name:         model.Name,
		CategoryID:   model.CategoryID,
		CategoryName: model.CategoryName,
		Price:        model.Price,
		Stock:        model.Stock,
		MinStock:     model.MinStock,
		ExpiryDate:   model.ExpiryDate,
	}
}
