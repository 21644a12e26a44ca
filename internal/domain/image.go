package domain

// Image описывает изображение товара в объектном хранилище.
type Image struct {
	ID          string // uuid
	Bucket      string
	ObjectKey   string // products/{product_id}/{uuid}.{ext}
	Data        []byte
	Size        int64
	ContentType string
}

func NewImage(id string, bucket string, objectKey string, data []byte, size int64, contentType string) *Image {
	return &Image{
		ID:          id,
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Data:        data,
		Size:        size,
		ContentType: contentType,
	}
}
