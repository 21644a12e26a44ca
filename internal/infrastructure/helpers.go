package infrastructure

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-recommender/pkg/e"
)

// GetExtensionFromMIME возвращает расширение файла по MIME-типу изображения.
// Поддерживает jpeg, jpg, png, webp. Для остальных типов e.ErrUnsupportedMediaType.
func GetExtensionFromMIME(mime string) (string, error) {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	default:
		return "bin", e.ErrUnsupportedMediaType
	}
}

// ProductImageKey строит ключ объекта изображения товара.
func ProductImageKey(productID int64, imageID string, ext string) string {
	return fmt.Sprintf("products/%d/%s.%s", productID, imageID, ext)
}

// PublicURL склеивает публичный адрес объекта.
func PublicURL(baseURL string, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(key, "/")
}
