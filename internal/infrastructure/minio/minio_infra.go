package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/infrastructure"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/jitter"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"

	"github.com/google/uuid"
)

const (
	uploadImagesLimit   = 4
	cleanupAttempts     = 3
	cleanupTimeout      = 30 * time.Second
	MaxImageSize  int64 = 10 << 20
)

// MinioInfrastructure управляет загрузкой и очисткой изображений товаров.
type MinioInfrastructure struct {
	imageRepo   usecase.ImageRepository
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	backoff     jitter.Backoff
}

func NewMinioInfrastructure(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	return &MinioInfrastructure{
		imageRepo:   imageRepo,
		cfg:         cfg,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		backoff:     jitter.NewBackoff(time.Second, 8*time.Second),
	}
}

// UploadImages загружает изображения товара параллельно, не больше uploadImagesLimit одновременно.
// При первой ошибке остальные загрузки отменяются, уже загруженное удаляется в фоне.
func (m *MinioInfrastructure) UploadImages(ctx context.Context, req *usecase.UploadImagesReq) (*usecase.UploadImagesRes, error) {
	const op = "MinioInfrastructure.UploadImages"

	if len(req.Images) == 0 {
		return nil, e.Wrap(op, e.ErrNoImages)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keyCh := make(chan string, len(req.Images))
	errCh := make(chan error, len(req.Images))
	sem := make(chan struct{}, uploadImagesLimit)

	var uploadWg sync.WaitGroup
	for _, image := range req.Images {
		uploadWg.Add(1)
		go func() {
			defer uploadWg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if image.Size > MaxImageSize {
				errCh <- fmt.Errorf("%s: %w", image.Name, e.ErrFileTooLarge)
				return
			}

			ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
			if err != nil {
				errCh <- fmt.Errorf("invalid mime type %s for %s: %w", image.MimeType, image.Name, err)
				return
			}

			imageID := uuid.NewString()
			objKey := infrastructure.ProductImageKey(req.ProductID, imageID, ext)
			newImage := domain.NewImage(imageID, m.cfg.BucketName, objKey, image.Data, image.Size, image.MimeType)

			key, err := m.imageRepo.Upload(ctx, newImage)
			if err != nil {
				errCh <- fmt.Errorf("upload %s failed: %w", image.Name, err)
				return
			}

			keyCh <- key
		}()
	}

	go func() {
		uploadWg.Wait()
		close(errCh)
		close(keyCh)
	}()

	keys := make([]string, 0, len(req.Images))
	done := false
	defer func() {
		if !done {
			// ключи, которые успели загрузиться после отмены
			for key := range keyCh {
				keys = append(keys, key)
			}
			m.CleanupImages(keys)
		}
	}()

	for completed := 0; completed < len(req.Images); {
		select {
		case key, ok := <-keyCh:
			if ok {
				keys = append(keys, key)
				completed++
			}
		case err, ok := <-errCh:
			if ok {
				cancel()
				return nil, e.Wrap(op, err)
			}
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	done = true

	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		urls = append(urls, infrastructure.PublicURL(m.publicBaseURL(), key))
	}

	return usecase.NewUploadImagesRes(keys, urls), nil
}

// CleanupImages запускает фоновую очистку указанных ключей.
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет объекты с экспоненциальной задержкой и джиттером.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done()
	const op = "MinioInfrastructure.cleanupUploadedKeys"
	m.logger.Infof("%s: cleaning up %d uploaded keys", op, len(keys))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := m.imageRepo.Delete(ctx, key)
			if err == nil {
				break
			}
			m.logger.Warnf("%s: delete %s failed (attempt %d): %v", op, key, attempt+1, err)

			if attempt == cleanupAttempts-1 {
				break
			}

			select {
			case <-time.After(m.backoff.Next(attempt)):
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения фоновых очисток с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

func (m *MinioInfrastructure) publicBaseURL() string {
	if m.cfg.PublicBaseURL != "" {
		return m.cfg.PublicBaseURL
	}

	scheme := "http"
	if m.cfg.MinioUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, m.cfg.MinioEndpoint, m.cfg.BucketName)
}
