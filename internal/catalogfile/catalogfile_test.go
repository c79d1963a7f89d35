package catalogfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront-client/internal/domain"
)

func TestRead(t *testing.T) {
	csvData := `id,name,description,price,imageUrl
1,Demo T-Shirt,Soft cotton tee,19.99,
,,,,https://example.com/shirt.jpg
2,,Ceramic mug,12.99,https://example.com/mug.jpg`

	products, err := Read(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].PriceCents != 1999 || products[0].ImageURL != "https://example.com/shirt.jpg" {
		t.Fatalf("unexpected first product: %+v", products[0])
	}
	if products[1].Name != "Product 2" {
		t.Fatalf("expected defaulted name, got %q", products[1].Name)
	}
}

func TestRead_Errors(t *testing.T) {
	cases := map[string]string{
		"no price column": "id,name\n1,x",
		"bad price":       "id,price\n1,abc",
		"duplicate":       "id,price\n1,1\n1,2",
		"empty":           "",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Read(context.Background(), strings.NewReader(data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSource_ListProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	if err := os.WriteFile(path, []byte("id,name,price\nmug,Mug,5\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	products, err := New(path).ListProducts(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 || products[0].ID != "mug" || products[0].PriceCents != 500 {
		t.Fatalf("unexpected products: %+v", products)
	}

	_, err = New(filepath.Join(t.TempDir(), "missing.csv")).ListProducts(context.Background(), "")
	if !errors.Is(err, domain.ErrCollaborator) {
		t.Fatalf("expected collaborator error for missing file, got %v", err)
	}
}
