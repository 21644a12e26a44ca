package domain

import (
	"fmt"
	"math"

	"github.com/DRSN-tech/catalog-recommender/pkg/e"
)

// Vector - эмбеддинг фиксированной размерности D.
type Vector []float32

// ZeroVector возвращает нулевой вектор размерности dim, им представляется пустой текст.
func ZeroVector(dim int) Vector {
	return make(Vector, dim)
}

// IsZero сообщает, что все компоненты вектора равны нулю.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// CosineSimilarity возвращает 1 - cosine_distance(a, b) без ограничения диапазона.
// Для вектора с нулевой нормой сходство равно 0.
func CosineSimilarity(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", e.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Centroid считает покомпонентное среднее арифметическое векторов.
// Все векторы должны иметь одинаковую размерность.
func Centroid(vectors []Vector) (Vector, error) {
	if len(vectors) == 0 {
		return nil, e.ErrNoVectors
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %d != %d", e.ErrDimensionMismatch, len(v), dim)
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	n := float64(len(vectors))
	centroid := make(Vector, dim)
	for i := range sum {
		centroid[i] = float32(sum[i] / n)
	}

	return centroid, nil
}
