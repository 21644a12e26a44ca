package infrastructure

import (
	"errors"
	"testing"

	"github.com/DRSN-tech/catalog-recommender/pkg/e"
)

func TestGetExtensionFromMIME(t *testing.T) {
	tests := []struct {
		mime    string
		want    string
		wantErr bool
	}{
		{"image/jpeg", "jpg", false},
		{"image/jpg", "jpg", false},
		{"image/png", "png", false},
		{"image/webp", "webp", false},
		{"image/gif", "bin", true},
		{"", "bin", true},
	}

	for _, tt := range tests {
		got, err := GetExtensionFromMIME(tt.mime)
		if got != tt.want {
			t.Errorf("GetExtensionFromMIME(%q) = %q, want %q", tt.mime, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, e.ErrUnsupportedMediaType) {
			t.Errorf("GetExtensionFromMIME(%q) error = %v", tt.mime, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("GetExtensionFromMIME(%q) unexpected error %v", tt.mime, err)
		}
	}
}

func TestProductImageKeyAndURL(t *testing.T) {
	key := ProductImageKey(42, "abc", "png")
	if key != "products/42/abc.png" {
		t.Fatalf("key = %q", key)
	}

	if got := PublicURL("http://localhost:9000/images/", key); got != "http://localhost:9000/images/products/42/abc.png" {
		t.Errorf("url = %q", got)
	}
}
