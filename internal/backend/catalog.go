package backend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"storefront-client/internal/domain"
)

const pathProducts = "/produits/"

// ListProducts fetches the catalog. Optional fields are defaulted here so the
// cart never sees a partially populated product; entries without an ID or
// with an unreadable price make the whole listing malformed.
func (c *Client) ListProducts(ctx context.Context, token string) ([]domain.Product, error) {
	resp, err := c.do(ctx, "catalog", "list", http.MethodGet, pathProducts, token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, &domain.CollaboratorError{Collaborator: "catalog", Op: "list", StatusCode: resp.status}
	}
	products, err := DecodeProducts(resp.body)
	if err != nil {
		return nil, &domain.CollaboratorError{Collaborator: "catalog", Op: "list", StatusCode: resp.status, Err: err}
	}
	c.logger.Debug().Int("count", len(products)).Msg("catalog listed")
	return products, nil
}

// DecodeProducts turns a JSON product listing into typed products. It accepts
// a bare array or an object with a "results" array.
func DecodeProducts(raw []byte) ([]domain.Product, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid JSON")
	}
	list := gjson.ParseBytes(raw)
	if list.IsObject() {
		list = list.Get("results")
	}
	if !list.IsArray() {
		return nil, errors.New("expected a product array")
	}

	var (
		out     []domain.Product
		decErr  error
		seenIDs = make(map[string]struct{})
	)
	list.ForEach(func(idx, item gjson.Result) bool {
		p, err := decodeProduct(item)
		if err != nil {
			decErr = fmt.Errorf("product %d: %w", idx.Int(), err)
			return false
		}
		if _, dup := seenIDs[p.ID]; dup {
			decErr = fmt.Errorf("product %d: duplicate id %q", idx.Int(), p.ID)
			return false
		}
		seenIDs[p.ID] = struct{}{}
		out = append(out, p)
		return true
	})
	if decErr != nil {
		return nil, decErr
	}
	return out, nil
}

func decodeProduct(item gjson.Result) (domain.Product, error) {
	if !item.IsObject() {
		return domain.Product{}, errors.New("not an object")
	}
	id := strings.TrimSpace(item.Get("id").String())
	if id == "" {
		return domain.Product{}, errors.New("missing id")
	}
	price := item.Get("price")
	if !price.Exists() {
		price = item.Get("priceCents")
		if !price.Exists() {
			return domain.Product{}, errors.New("missing price")
		}
		cents, err := strconv.ParseInt(strings.TrimSpace(price.String()), 10, 64)
		if err != nil {
			return domain.Product{}, fmt.Errorf("invalid priceCents %q", price.String())
		}
		return fillProduct(item, id, cents), nil
	}
	cents, err := ParseCents(price.String())
	if err != nil {
		return domain.Product{}, err
	}
	return fillProduct(item, id, cents), nil
}

func fillProduct(item gjson.Result, id string, cents int64) domain.Product {
	p := domain.Product{
		ID:          id,
		Name:        strings.TrimSpace(item.Get("name").String()),
		Description: strings.TrimSpace(item.Get("description").String()),
		PriceCents:  cents,
		Owner:       item.Get("owner").String(),
	}
	if p.Name == "" {
		p.Name = "Product " + id
	}
	for _, key := range []string{"imageUrl", "image_url", "url", "image"} {
		if v := strings.TrimSpace(item.Get(key).String()); v != "" {
			p.ImageURL = v
			break
		}
	}
	if v := item.Get("created_at"); v.Exists() {
		if ts, err := time.Parse(time.RFC3339Nano, v.String()); err == nil {
			p.CreatedAt = ts.UTC()
		}
	}
	return p
}

// ParseCents converts a decimal price such as "19.99" into minor units.
func ParseCents(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty price")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	cents := math.Round(f * 100)
	if math.Abs(cents) >= math.MaxInt64 {
		return 0, fmt.Errorf("price %q out of range", raw)
	}
	return int64(cents), nil
}
