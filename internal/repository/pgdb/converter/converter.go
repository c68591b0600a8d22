package converter

import (
	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
}

// CategoryConverter преобразует сущности Category между domain и моделью PostgreSQL.
type CategoryConverter interface {
	ToModel(entity *domain.Category) *CategoryModel
	ToEntity(model *CategoryModel) *domain.Category
}

// SaleConverter собирает продажу из записи sales и её строк.
type SaleConverter interface {
	ToModel(entity *domain.Sale) (*SaleModel, []SaleItemModel)
	ToEntity(model *SaleModel, items []SaleItemModel) *domain.Sale
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type ProductConverterImpl struct{}

func (ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}

	model := &ProductModel{
		ID:         entity.ID,
		Name:       entity.Name,
		Price:      entity.Price,
		Stock:      entity.Stock,
		MinStock:   entity.MinStock,
		ExpiryDate: entity.ExpiryDate,
		CategoryID: entity.CategoryID,
		CreatedAt:  entity.CreatedAt,
		UpdatedAt:  entity.UpdatedAt,
		IsArchived: entity.IsArchived,
	}
	if entity.CategoryName != "" {
		name := entity.CategoryName
		model.CategoryName = &name
	}

	return model
}

func (ProductConverterImpl) ToEntity(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}

	entity := &domain.Product{
		ID:         model.ID,
		Name:       model.Name,
		Price:      model.Price,
		Stock:      model.Stock,
		MinStock:   model.MinStock,
		ExpiryDate: model.ExpiryDate,
		CategoryID: model.CategoryID,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
		IsArchived: model.IsArchived,
	}
	if model.CategoryName != nil {
		entity.CategoryName = *model.CategoryName
	}

	return entity
}

type CategoryConverterImpl struct{}

func (CategoryConverterImpl) ToModel(entity *domain.Category) *CategoryModel {
	if entity == nil {
		return nil
	}

	return &CategoryModel{
		ID:         entity.ID,
		Name:       entity.Name,
		CreatedAt:  entity.CreatedAt,
		UpdatedAt:  entity.UpdatedAt,
		IsArchived: entity.IsArchived,
	}
}

func (CategoryConverterImpl) ToEntity(model *CategoryModel) *domain.Category {
	if model == nil {
		return nil
	}

	return &domain.Category{
		ID:         model.ID,
		Name:       model.Name,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
		IsArchived: model.IsArchived,
	}
}

type SaleConverterImpl struct{}

func (SaleConverterImpl) ToModel(entity *domain.Sale) (*SaleModel, []SaleItemModel) {
	model := &SaleModel{
		ID:               entity.ID,
		CreatedAt:        entity.CreatedAt,
		CustomerName:     entity.Customer.Name,
		CustomerDocument: entity.Customer.DocumentID,
		Total:            entity.Total,
	}

	items := make([]SaleItemModel, 0, len(entity.Items))
	for i, item := range entity.Items {
		items = append(items, SaleItemModel{
			SaleID:    entity.ID,
			Position:  i,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	return model, items
}

func (SaleConverterImpl) ToEntity(model *SaleModel, items []SaleItemModel) *domain.Sale {
	sale := &domain.Sale{
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
		Customer: domain.Customer{
			Name:       model.CustomerName,
			DocumentID: model.CustomerDocument,
		},
		Items: make([]domain.SaleItem, 0, len(items)),
		Total: model.Total,
	}

	for _, item := range items {
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	return sale
}

type OutboxEventConverterImpl struct{}

func (OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}

	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		res = append(res, c.ToEntity(model))
	}

	return res
}
