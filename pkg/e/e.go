package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки эмбеддинг-провайдера
	ErrProviderUnavailable   = fmt.Errorf("embedding provider unavailable")
	ErrProviderTimeout       = fmt.Errorf("embedding provider timeout")
	ErrProviderNotConfigured = fmt.Errorf("embedding provider is not configured")
	ErrEmptyEmbedding        = fmt.Errorf("embedding provider returned empty vector")

	// Ошибки конфигурации векторов, не должны замалчиваться
	ErrDimensionMismatch = fmt.Errorf("embedding dimension mismatch")
	ErrNoVectors         = fmt.Errorf("no vectors to aggregate")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidPriceRange    = fmt.Errorf("min_price must not exceed max_price")
	ErrProductTitleRequired = fmt.Errorf("product title is required")
	ErrProductCategoryEmpty = fmt.Errorf("product category is required")
	ErrInvalidEAN           = fmt.Errorf("ean must contain exactly 13 characters")
	ErrPriceMustBePositive  = fmt.Errorf("price must be positive")
	ErrInvalidRating        = fmt.Errorf("rating must be between 0 and 5")
	ErrInvalidStock         = fmt.Errorf("stock must not be negative")
	ErrInvalidLimit         = fmt.Errorf("limit is out of range")
	ErrInvalidSimilarity    = fmt.Errorf("min_similarity must be between 0 and 1")
	ErrInvalidID            = fmt.Errorf("invalid identifier")
	ErrEmptyQuery           = fmt.Errorf("query text is required")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrNoImages             = fmt.Errorf("no images provided")
	ErrFileTooLarge         = fmt.Errorf("file is too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrEmptyPatch           = fmt.Errorf("no fields to update")
	ErrInvalidSkip          = fmt.Errorf("skip must not be negative")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")

	// 409 Conflict
	ErrDuplicateEAN     = fmt.Errorf("product with this ean already exists")
	ErrProductHasOrders = fmt.Errorf("product is referenced by orders")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Ошибки конфигурации окружения
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
