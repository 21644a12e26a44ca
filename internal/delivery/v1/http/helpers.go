package http

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const maxImageFileSize = 10 << 20

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrInvalidPriceRange):
		return http.StatusBadRequest, e.ErrInvalidPriceRange.Error()
	case errors.Is(err, e.ErrProductTitleRequired):
		return http.StatusBadRequest, e.ErrProductTitleRequired.Error()
	case errors.Is(err, e.ErrProductCategoryEmpty):
		return http.StatusBadRequest, e.ErrProductCategoryEmpty.Error()
	case errors.Is(err, e.ErrInvalidEAN):
		return http.StatusBadRequest, e.ErrInvalidEAN.Error()
	case errors.Is(err, e.ErrPriceMustBePositive):
		return http.StatusBadRequest, e.ErrPriceMustBePositive.Error()
	case errors.Is(err, e.ErrInvalidRating):
		return http.StatusBadRequest, e.ErrInvalidRating.Error()
	case errors.Is(err, e.ErrInvalidStock):
		return http.StatusBadRequest, e.ErrInvalidStock.Error()
	case errors.Is(err, e.ErrInvalidLimit):
		return http.StatusBadRequest, e.ErrInvalidLimit.Error()
	case errors.Is(err, e.ErrInvalidSimilarity):
		return http.StatusBadRequest, e.ErrInvalidSimilarity.Error()
	case errors.Is(err, e.ErrInvalidID):
		return http.StatusBadRequest, e.ErrInvalidID.Error()
	case errors.Is(err, e.ErrEmptyPatch):
		return http.StatusBadRequest, e.ErrEmptyPatch.Error()
	case errors.Is(err, e.ErrInvalidSkip):
		return http.StatusBadRequest, e.ErrInvalidSkip.Error()
	case errors.Is(err, e.ErrNoImages):
		return http.StatusBadRequest, e.ErrNoImages.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrDuplicateEAN):
		return http.StatusConflict, e.ErrDuplicateEAN.Error()
	case errors.Is(err, e.ErrProductHasOrders):
		return http.StatusConflict, e.ErrProductHasOrders.Error()
	case errors.Is(err, e.ErrProviderUnavailable), errors.Is(err, e.ErrProviderTimeout):
		return http.StatusServiceUnavailable, e.ErrProviderUnavailable.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// priceToCents переводит цену в рублях в копейки.
// Ошибка, если цена отрицательная, больше 10^9 рублей или имеет больше двух знаков после запятой.
func priceToCents(d decimal.Decimal) (int64, error) {
	if d.LessThan(decimal.Zero) {
		return 0, e.ErrInvalidPrice
	}

	maxPrice := decimal.NewFromInt(1_000_000_000)
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	if !d.Equal(d.Round(2)) {
		return 0, e.ErrPricePrecision
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// parsePriceToCents разбирает строку вида "599.99" или "600".
func parsePriceToCents(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	return priceToCents(d)
}

func centsToPrice(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, e.ErrInvalidID
	}
	return id, nil
}

// parseLimit допускает 1..MaxLimit, пустое значение даёт DefaultLimit.
func parseLimit(s string) (int, error) {
	if s == "" {
		return usecase.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil || limit < 1 || limit > usecase.MaxLimit {
		return 0, e.ErrInvalidLimit
	}
	return limit, nil
}

// parseSkip допускает неотрицательное смещение, пустое значение даёт 0.
func parseSkip(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	skip, err := strconv.Atoi(s)
	if err != nil || skip < 0 {
		return 0, e.ErrInvalidSkip
	}
	return skip, nil
}

func parseSimilarity(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	// NaN не попадает ни под одно сравнение, поэтому проверяется отдельно
	if err != nil || math.IsNaN(v) || v < 0 || v > 1 {
		return 0, e.ErrInvalidSimilarity
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, e.Wrap("invalid boolean "+s, e.ErrStatusBadRequest)
	}
	return v, nil
}

// parseIDList принимает id через запятую, параметр можно повторять.
func parseIDList(values []string) ([]int64, error) {
	ids := make([]int64, 0)
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseFilters(category, minPrice, maxPrice string) (domain.SearchFilters, error) {
	filters := domain.SearchFilters{Category: strings.TrimSpace(category)}

	if minPrice != "" {
		cents, err := parsePriceToCents(minPrice)
		if err != nil {
			return filters, err
		}
		filters.MinPrice = &cents
	}
	if maxPrice != "" {
		cents, err := parsePriceToCents(maxPrice)
		if err != nil {
			return filters, err
		}
		filters.MaxPrice = &cents
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && *filters.MinPrice > *filters.MaxPrice {
		return filters, e.ErrInvalidPriceRange
	}

	return filters, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

func parseImage(form *multipart.Form) (*usecase.ProductImage, error) {
	if form == nil || len(form.File["image"]) == 0 {
		return nil, e.ErrNoImages
	}

	fh := form.File["image"][0]
	data, mimeType, err := readFile(fh, maxImageFileSize)
	if err != nil {
		return nil, err
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), fh.Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if fh.Size > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, "", e.ErrNoImages
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}
