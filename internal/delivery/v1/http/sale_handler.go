package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type SaleHandler struct {
	saleUsecase usecase.SaleUC
	logger      logger.Logger
	now         func() time.Time
}

func NewSaleHandler(saleUsecase usecase.SaleUC, logger logger.Logger) *SaleHandler {
	return &SaleHandler{saleUsecase: saleUsecase, logger: logger, now: time.Now}
}

// listSales
//
//	@Summary		Журнал продаж
//	@Description	Продажи по убыванию времени. Даты включительные, календарные дни UTC
//	@Tags			sales
//	@Produce		json
//	@Param			from		query		string	false	"С даты (YYYY-MM-DD)"
//	@Param			to			query		string	false	"По дату (YYYY-MM-DD)"
//	@Param			customer	query		string	false	"Имя или документ покупателя"
//	@Param			limit		query		int		false	"Размер страницы"
//	@Param			offset		query		int		false	"Смещение"
//	@Success		200			{object}	SaleListResponse
//	@Failure		400			{object}	ErrorResponse	"Некорректный фильтр"
//	@Failure		503			{object}	ErrorResponse	"Хранилище недоступно"
//	@Router			/sales [get]
func (s *SaleHandler) listSales(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSaleFilter(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	sales, err := s.saleUsecase.List(r.Context(), filter)
	if err != nil {
		s.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	res := SaleListResponse{
		Sales:  make([]SaleResponse, 0, len(sales)),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for i := range sales {
		res.Sales = append(res.Sales, toSaleResponse(&sales[i]))
	}

	WriteSuccess(w, http.StatusOK, res)
}

// getSale
//
//	@Summary	Продажа с позициями
//	@Tags		sales
//	@Produce	json
//	@Param		id	path		string	true	"ID продажи"
//	@Success	200	{object}	SaleResponse
//	@Failure	404	{object}	ErrorResponse	"Продажа не найдена"
//	@Router		/sales/{id} [get]
func (s *SaleHandler) getSale(w http.ResponseWriter, r *http.Request) {
	sale, err := s.saleUsecase.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSaleResponse(sale))
}

// summary
//
//	@Summary		Сводка за день
//	@Description	Количество и сумма продаж за день, количество товаров с низким остатком
//	@Tags			sales
//	@Produce		json
//	@Param			date	query		string	false	"День (YYYY-MM-DD), по умолчанию сегодня"
//	@Success		200		{object}	SummaryResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректная дата"
//	@Router			/sales/summary [get]
func (s *SaleHandler) summary(w http.ResponseWriter, r *http.Request) {
	day, err := dayQuery(r, "date", s.now())
	if err != nil {
		WriteError(w, err)
		return
	}

	summary, err := s.saleUsecase.Summary(r.Context(), day)
	if err != nil {
		s.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSummaryResponse(summary))
}

// archiveDay
//
//	@Summary		Архивация продаж за день
//	@Description	Выгружает продажи дня в объектное хранилище. Повторная выгрузка перезаписывает архив дня
//	@Tags			sales
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ArchiveRequest	true	"День (YYYY-MM-DD)"
//	@Success		200		{object}	ArchiveResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректная дата"
//	@Failure		501		{object}	ErrorResponse	"Архив не настроен"
//	@Router			/sales/archive [post]
func (s *SaleHandler) archiveDay(w http.ResponseWriter, r *http.Request) {
	var body ArchiveRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, err)
		return
	}

	day := s.now().UTC()
	if body.Date != "" {
		parsed, err := parseDay(body.Date)
		if err != nil {
			WriteError(w, err)
			return
		}
		day = parsed
	}

	res, err := s.saleUsecase.ArchiveDay(r.Context(), day)
	if err != nil {
		s.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ArchiveResponse{Key: res.Key, Count: res.Count})
}

func parseSaleFilter(r *http.Request) (usecase.SaleFilter, error) {
	filter := usecase.SaleFilter{Customer: r.URL.Query().Get("customer")}

	from, err := optionalDay(r, "from")
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := optionalDay(r, "to")
	if err != nil {
		return filter, err
	}
	if to != nil {
		// День "по" включается целиком
		_, end := usecase.DayRange(*to)
		filter.To = &end
	}

	if filter.Limit, err = intQuery(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intQuery(r, "offset"); err != nil {
		return filter, err
	}

	return filter, nil
}
