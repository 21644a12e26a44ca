package tr

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/catalog-recommender/pkg/e"
)

func TestTxFromCtxMissing(t *testing.T) {
	_, err := TxFromCtx(context.Background())
	if !errors.Is(err, e.ErrTransactionNotFound) {
		t.Fatalf("TxFromCtx() error = %v, want ErrTransactionNotFound", err)
	}
}

func TestQuerierFromCtxFallsBack(t *testing.T) {
	if got := QuerierFromCtx(context.Background(), nil); got != nil {
		t.Fatalf("QuerierFromCtx() = %v, want fallback nil", got)
	}
}
