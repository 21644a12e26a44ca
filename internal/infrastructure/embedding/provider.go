package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/jitter"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	openai "github.com/sashabaranov/go-openai"
)

const (
	pingTimeout = 2 * time.Second
	apiPath     = "/v1"
)

// Provider генерирует эмбеддинги через OpenAI-совместимый API (Ollama).
type Provider struct {
	client       *openai.Client
	cfg          *cfg.EmbeddingCfg
	availability *Availability
	backoff      jitter.Backoff
	logger       logger.Logger
}

func NewProvider(cfg *cfg.EmbeddingCfg, logger logger.Logger) (*Provider, error) {
	const op = "embedding.NewProvider"

	if cfg == nil || cfg.BaseURL == "" || cfg.Model == "" || cfg.Dimension <= 0 {
		return nil, e.Wrap(op, e.ErrProviderNotConfigured)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = apiBaseURL(cfg.BaseURL)

	p := &Provider{
		client:  openai.NewClientWithConfig(config),
		cfg:     cfg,
		backoff: jitter.NewBackoff(200*time.Millisecond, 2*time.Second),
		logger:  logger,
	}
	p.availability = NewAvailability(cfg.AvailabilityTTL, p.ping)

	return p, nil
}

func (p *Provider) Dimension() int {
	return p.cfg.Dimension
}

// Available сообщает, доступен ли провайдер и загружена ли модель.
func (p *Provider) Available(ctx context.Context) bool {
	return p.availability.Check(ctx)
}

// Generate возвращает эмбеддинг текста с префиксом режима. Пустой текст даёт нулевой вектор.
// Каждая попытка ограничена EMBEDDING_TIMEOUT, между попытками экспоненциальная задержка с джиттером.
func (p *Provider) Generate(ctx context.Context, text string, mode domain.EmbeddingMode) (domain.Vector, error) {
	const op = "Provider.Generate"

	if strings.TrimSpace(text) == "" {
		return domain.ZeroVector(p.cfg.Dimension), nil
	}

	if !p.Available(ctx) {
		return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrProviderUnavailable, p.availability.LastError()))
	}

	input := mode.Prefix() + text

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			sleepTime := p.backoff.Next(attempt - 1)
			p.logger.Warnf("embedding generation failed, retrying in %v (attempt %d): %v", sleepTime, attempt, lastErr)

			select {
			case <-time.After(sleepTime):
			case <-ctx.Done():
				p.availability.Invalidate()
				return nil, e.Wrap(op, toProviderError(ctx.Err()))
			}
		}

		vector, err := p.generateOnce(ctx, input)
		if err == nil {
			return vector, nil
		}
		if errors.Is(err, e.ErrDimensionMismatch) {
			return nil, e.Wrap(op, err)
		}

		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			break
		}
	}

	p.availability.Invalidate()
	return nil, e.Wrap(op, toProviderError(lastErr))
}

func (p *Provider) generateOnce(ctx context.Context, input string) (domain.Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{input},
		Model: openai.EmbeddingModel(p.cfg.Model),
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", e.ErrProviderTimeout, err)
		}
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, e.ErrEmptyEmbedding
	}

	vector := resp.Data[0].Embedding
	if len(vector) != p.cfg.Dimension {
		return nil, fmt.Errorf("%w: provider returned %d, configured %d", e.ErrDimensionMismatch, len(vector), p.cfg.Dimension)
	}

	return domain.Vector(vector), nil
}

// ping проверяет, что в списке моделей провайдера есть нужная.
func (p *Provider) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	models, err := p.client.ListModels(ctx)
	if err != nil {
		p.logger.Warnf("embedding provider is unreachable: %v", err)
		return err
	}

	for _, m := range models.Models {
		if strings.Contains(m.ID, p.cfg.Model) {
			p.logger.Infof("embedding provider available with model %q", m.ID)
			return nil
		}
	}

	err = fmt.Errorf("model %q is not installed", p.cfg.Model)
	p.logger.Warnf("embedding provider check failed: %v", err)
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, e.ErrEmptyEmbedding) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}

	return true
}

func toProviderError(err error) error {
	switch {
	case errors.Is(err, e.ErrProviderTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", e.ErrProviderTimeout, err)
	default:
		return fmt.Errorf("%w: %v", e.ErrProviderUnavailable, err)
	}
}

// apiBaseURL добавляет /v1, если OLLAMA_HOST указан без него.
func apiBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, apiPath) {
		return base
	}
	return base + apiPath
}
