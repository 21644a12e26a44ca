package http

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const maxJSONBodySize = 1 << 20

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// createProduct
//
//	@Summary		Создание товара
//	@Description	Создаёт товар и строит его эмбеддинг. Если провайдер недоступен, товар сохраняется без эмбеддинга
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		CreateProductRequest	true	"Товар"
//	@Success		201		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		409		{object}	ErrorResponse	"EAN уже существует"
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		p.logger.Warnf("%d %s: %v", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err)
		WriteError(w, err)
		return
	}

	ucReq, err := req.ToUseCase()
	if err != nil {
		p.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.CreateProduct(r.Context(), ucReq)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, NewProductResponse(info))
}

// updateProduct
//
//	@Summary		Обновление товара
//	@Description	Частичное обновление. Эмбеддинг перестраивается при изменении названия, описания, категории, бренда или цвета
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"ID товара"
//	@Param			product	body		UpdateProductRequest	true	"Изменяемые поля"
//	@Success		200		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		404		{object}	ErrorResponse	"Товар не найден"
//	@Router			/products/{id} [patch]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var req UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		p.logger.Warnf("%d %s: %v", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err)
		WriteError(w, err)
		return
	}

	patch, err := req.ToUseCase()
	if err != nil {
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductResponse(info))
}

// getProduct
//
//	@Summary	Карточка товара
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	404	{object}	ErrorResponse	"Товар не найден"
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductResponse(info))
}

// listProducts
//
//	@Summary	Список товаров
//	@Tags		products
//	@Produce	json
//	@Param		category	query		string	false	"Категория"
//	@Param		min_price	query		string	false	"Минимальная цена"
//	@Param		max_price	query		string	false	"Максимальная цена"
//	@Param		skip		query		int		false	"Смещение"	default(0)
//	@Param		limit		query		int		false	"Размер страницы (1-100)"	default(10)
//	@Success	200			{object}	ProductListResponse
//	@Failure	400			{object}	ErrorResponse	"Ошибка валидации"
//	@Router		/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, err := parseSkip(q.Get("skip"))
	if err != nil {
		p.logger.Warnf("%d %s: skip=%q", http.StatusBadRequest, err.Error(), q.Get("skip"))
		WriteError(w, err)
		return
	}

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		p.logger.Warnf("%d %s: limit=%q", http.StatusBadRequest, err.Error(), q.Get("limit"))
		WriteError(w, err)
		return
	}

	filters, err := parseFilters(q.Get("category"), q.Get("min_price"), q.Get("max_price"))
	if err != nil {
		p.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.ListProducts(r.Context(), &usecase.ListProductsReq{
		Filters: filters,
		Skip:    skip,
		Limit:   limit,
	})
	if err != nil {
		p.logger.Errorf(err, "list products failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductListResponse(res))
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		products
//	@Param		id	path	int	true	"ID товара"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse	"Товар не найден"
//	@Failure	409	{object}	ErrorResponse	"Товар есть в заказах"
//	@Router		/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadImage
//
//	@Summary		Загрузка изображения товара
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		int		true	"ID товара"
//	@Param			image	formData	file	true	"Изображение (jpeg, png, webp)"
//	@Success		200		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		413		{object}	ErrorResponse	"Файл слишком большой"
//	@Failure		415		{object}	ErrorResponse	"Неподдерживаемый тип"
//	@Router			/products/{id}/image [post]
func (p *ProductHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = maxImageFileSize + 1<<20
		maxMemory           = 32 << 20
	)

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, e.Wrap(err.Error(), e.ErrExpectedMultipart))
		return
	}

	image, err := parseImage(r.MultipartForm)
	if err != nil {
		p.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.UploadImage(r.Context(), id, image)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductResponse(info))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}
	return nil
}
