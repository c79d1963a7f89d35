// Package catalogfile serves the product catalog from a CSV export, for
// offline and demo runs of the client without a backend.
package catalogfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"storefront-client/internal/backend"
	"storefront-client/internal/domain"
)

// Source reads products from a CSV file on every listing, so edits to the
// file show up without a restart.
type Source struct {
	path string
}

// New creates a Source for the CSV file at path.
func New(path string) *Source {
	return &Source{path: path}
}

// ListProducts implements the Catalog collaborator. The token is ignored.
func (s *Source) ListProducts(ctx context.Context, _ string) ([]domain.Product, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &domain.CollaboratorError{Collaborator: "catalog", Op: "list", Err: err}
	}
	defer f.Close()

	products, err := Read(ctx, f)
	if err != nil {
		return nil, &domain.CollaboratorError{Collaborator: "catalog", Op: "list", Err: err}
	}
	return products, nil
}

// Read parses a product CSV. The header row names the columns; id and price
// are required, name, description and imageUrl are optional. Rows with an
// empty id carry an extra image URL for the preceding product and are
// otherwise ignored.
func Read(ctx context.Context, r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may have trailing commas

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["id"]; !ok {
		return nil, errors.New("missing id column")
	}
	if _, ok := index["price"]; !ok {
		return nil, errors.New("missing price column")
	}

	var (
		products []domain.Product
		seen     = make(map[string]struct{})
		line     = 1
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		id := pick(record, index, "id")
		if id == "" {
			if n := len(products); n > 0 && products[n-1].ImageURL == "" {
				products[n-1].ImageURL = pick(record, index, "imageUrl")
			}
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("line %d: duplicate id %q", line, id)
		}
		cents, err := backend.ParseCents(pick(record, index, "price"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		p := domain.Product{
			ID:          id,
			Name:        pick(record, index, "name"),
			Description: pick(record, index, "description"),
			PriceCents:  cents,
			ImageURL:    pick(record, index, "imageUrl"),
		}
		if p.Name == "" {
			p.Name = "Product " + id
		}
		seen[id] = struct{}{}
		products = append(products, p)
	}
	return products, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
