package http

import (
	"net/http"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger}
}

// createCart
//
//	@Summary	Новая корзина
//	@Tags		carts
//	@Produce	json
//	@Success	201	{object}	CartResponse
//	@Router		/carts [post]
func (c *CartHandler) createCart(w http.ResponseWriter, r *http.Request) {
	view, err := c.cartUsecase.Create(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toCartResponse(view))
}

// getCart
//
//	@Summary	Корзина
//	@Tags		carts
//	@Produce	json
//	@Param		id	path		string	true	"ID корзины"
//	@Success	200	{object}	CartResponse
//	@Failure	404	{object}	ErrorResponse	"Корзина не найдена"
//	@Router		/carts/{id} [get]
func (c *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	c.respond(w, http.StatusOK)(c.cartUsecase.Get(r.Context(), chi.URLParam(r, "id")))
}

// deleteCart
//
//	@Summary	Отмена корзины
//	@Tags		carts
//	@Param		id	path	string	true	"ID корзины"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse	"Корзина не найдена"
//	@Router		/carts/{id} [delete]
func (c *CartHandler) deleteCart(w http.ResponseWriter, r *http.Request) {
	if err := c.cartUsecase.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// addItem
//
//	@Summary		Добавление товара в корзину
//	@Description	Количество суммируется с уже добавленным; проверяется по остатку
//	@Tags			carts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"ID корзины"
//	@Param			request	body		AddItemRequest	true	"Товар и количество"
//	@Success		200		{object}	CartResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректное количество"
//	@Failure		404		{object}	ErrorResponse	"Корзина или товар не найдены"
//	@Failure		422		{object}	ErrorResponse	"Недостаточно товара"
//	@Router			/carts/{id}/items [post]
func (c *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var body AddItemRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, err)
		return
	}

	quantity, err := body.Quantity.Int64()
	if err != nil {
		WriteError(w, err)
		return
	}

	c.respond(w, http.StatusOK)(c.cartUsecase.AddItem(r.Context(), chi.URLParam(r, "id"), body.ProductID, quantity))
}

// setQuantity
//
//	@Summary	Изменение количества
//	@Tags		carts
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string				true	"ID корзины"
//	@Param		productID	path		int					true	"ID товара"
//	@Param		request		body		SetQuantityRequest	true	"Новое количество"
//	@Success	200			{object}	CartResponse
//	@Failure	400			{object}	ErrorResponse	"Некорректное количество"
//	@Failure	404			{object}	ErrorResponse	"Корзина или строка не найдены"
//	@Failure	422			{object}	ErrorResponse	"Недостаточно товара"
//	@Router		/carts/{id}/items/{productID} [put]
func (c *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := int64Param(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	var body SetQuantityRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, err)
		return
	}

	quantity, err := body.Quantity.Int64()
	if err != nil {
		WriteError(w, err)
		return
	}

	c.respond(w, http.StatusOK)(c.cartUsecase.SetQuantity(r.Context(), chi.URLParam(r, "id"), productID, quantity))
}

// removeItem
//
//	@Summary	Удаление строки корзины
//	@Tags		carts
//	@Produce	json
//	@Param		id			path		string	true	"ID корзины"
//	@Param		productID	path		int		true	"ID товара"
//	@Success	200			{object}	CartResponse
//	@Failure	404			{object}	ErrorResponse	"Корзина не найдена"
//	@Router		/carts/{id}/items/{productID} [delete]
func (c *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, err := int64Param(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	c.respond(w, http.StatusOK)(c.cartUsecase.RemoveItem(r.Context(), chi.URLParam(r, "id"), productID))
}

// clearCart
//
//	@Summary	Очистка корзины
//	@Tags		carts
//	@Produce	json
//	@Param		id	path		string	true	"ID корзины"
//	@Success	200	{object}	CartResponse
//	@Failure	404	{object}	ErrorResponse	"Корзина не найдена"
//	@Router		/carts/{id}/clear [post]
func (c *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	c.respond(w, http.StatusOK)(c.cartUsecase.Clear(r.Context(), chi.URLParam(r, "id")))
}

// checkout
//
//	@Summary		Проведение продажи
//	@Description	Проверяет остатки, списывает их и записывает продажу. При ошибке корзина сохраняется
//	@Tags			carts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"ID корзины"
//	@Param			request	body		CheckoutRequest	true	"Покупатель"
//	@Success		201		{object}	SaleResponse
//	@Failure		404		{object}	ErrorResponse	"Корзина не найдена"
//	@Failure		409		{object}	ErrorResponse	"Конфликт при списании, повторите"
//	@Failure		422		{object}	ErrorResponse	"Пустая корзина, нет данных покупателя или недостаточно товара"
//	@Failure		503		{object}	ErrorResponse	"Хранилище недоступно"
//	@Router			/carts/{id}/checkout [post]
func (c *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var body CheckoutRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, err)
		return
	}

	sale, err := c.cartUsecase.Checkout(r.Context(), chi.URLParam(r, "id"),
		domain.NewCustomer(body.CustomerName, body.CustomerDocument))
	if err != nil {
		c.logger.Warnf("checkout failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toSaleResponse(sale))
}

func (c *CartHandler) respond(w http.ResponseWriter, status int) func(*usecase.CartView, error) {
	return func(view *usecase.CartView, err error) {
		if err != nil {
			WriteError(w, err)
			return
		}

		WriteSuccess(w, status, toCartResponse(view))
	}
}
