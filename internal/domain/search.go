package domain

// ScoredProduct - товар с оценкой сходства, живёт в рамках одного запроса.
type ScoredProduct struct {
	Product Product
	Score   float64
}

// SearchFilters - структурные фильтры поиска, цены в копейках включительно.
type SearchFilters struct {
	Category string
	MinPrice *int64
	MaxPrice *int64
}

// Match проверяет товар на соответствие фильтрам.
func (f SearchFilters) Match(p *Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}

// Strategy - стратегия рекомендаций.
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyCategory Strategy = "category"
	StrategyHybrid   Strategy = "hybrid"
	StrategyPopular  Strategy = "popular" // только как применённая стратегия
)

// IsKnown сообщает, что стратегию можно запросить явно.
func (s Strategy) IsKnown() bool {
	switch s {
	case StrategySemantic, StrategyCategory, StrategyHybrid:
		return true
	}
	return false
}

// EmbeddingMode различает эмбеддинги запросов и индексируемых документов.
type EmbeddingMode int

const (
	ModeQuery EmbeddingMode = iota
	ModeDocument
)

// Prefix возвращает инструкцию, которую ожидает модель для данного режима.
func (m EmbeddingMode) Prefix() string {
	if m == ModeDocument {
		return "retrieval_document: "
	}
	return "retrieval_query: "
}

func (m EmbeddingMode) String() string {
	if m == ModeDocument {
		return "document"
	}
	return "query"
}
