package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/DRSN-tech/minimarket/pkg/money"
)

type ProductHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
}

func NewProductHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{catalogUsecase: catalogUsecase, logger: logger}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Активные товары каталога, отсортированные по ID
//	@Tags			products
//	@Produce		json
//	@Param			category_id	query		int		false	"ID категории"
//	@Param			search		query		string	false	"Подстрока названия"
//	@Success		200			{array}		ProductResponse
//	@Failure		400			{object}	ErrorResponse	"Некорректный фильтр"
//	@Failure		503			{object}	ErrorResponse	"Хранилище недоступно"
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter := usecase.ProductFilter{Search: r.URL.Query().Get("search")}

	if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			WriteError(w, e.Wrap("category_id", e.ErrStatusBadRequest))
			return
		}
		filter.CategoryID = id
	}

	products, err := p.catalogUsecase.ListProducts(r.Context(), filter)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductsResponse(products))
}

// lowStock
//
//	@Summary	Товары с низким остатком
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}		ProductResponse
//	@Failure	503	{object}	ErrorResponse	"Хранилище недоступно"
//	@Router		/products/low-stock [get]
func (p *ProductHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := p.catalogUsecase.LowStock(r.Context())
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductsResponse(products))
}

// getProduct
//
//	@Summary	Товар по ID
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	404	{object}	ErrorResponse	"Товар не найден"
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.catalogUsecase.GetProduct(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// registerProduct
//
//	@Summary		Регистрация товара
//	@Description	Создает товар или обновляет существующий с тем же названием. Категория создается при необходимости
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterProductRequest	true	"Товар"
//	@Success		201		{object}	RegisterProductResponse	"Товар создан или изменен"
//	@Success		200		{object}	RegisterProductResponse	"Изменений нет"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации"
//	@Failure		501		{object}	ErrorResponse			"Хранилище не поддерживает запись каталога"
//	@Router			/products [post]
func (p *ProductHandler) registerProduct(w http.ResponseWriter, r *http.Request) {
	var body RegisterProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.Category) == "" || strings.TrimSpace(body.Price) == "" {
		WriteError(w, e.Wrap("name, category and price are required", e.ErrMissingFields))
		return
	}

	price, err := money.ParsePrice(body.Price)
	if err != nil {
		WriteError(w, err)
		return
	}

	var expiry *time.Time
	if body.ExpiryDate != nil && *body.ExpiryDate != "" {
		day, err := parseDay(*body.ExpiryDate)
		if err != nil {
			WriteError(w, err)
			return
		}
		expiry = &day
	}

	res, err := p.catalogUsecase.RegisterProduct(r.Context(),
		usecase.NewRegisterProductReq(body.Name, body.Category, price, body.Stock, body.MinStock, expiry))
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if res.NoChanges {
		status = http.StatusOK
	}

	WriteSuccess(w, status, RegisterProductResponse{
		Product: toProductResponse(res.Product),
		Changed: !res.NoChanges,
	})
}

// refreshCatalog
//
//	@Summary		Обновление снимка каталога
//	@Description	Перечитывает каталог из хранилища и прогревает кэш
//	@Tags			products
//	@Produce		json
//	@Success		200	{object}	RefreshResponse
//	@Failure		503	{object}	ErrorResponse	"Хранилище недоступно"
//	@Router			/products/refresh [post]
func (p *ProductHandler) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	n, err := p.catalogUsecase.Refresh(r.Context())
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, RefreshResponse{Products: n})
}
