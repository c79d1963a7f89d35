package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-client/internal/domain"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/api/", Logger: zerolog.Nop()})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestExchangeCredentials_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bob", body.Username)
		assert.Equal(t, "secret", body.Password)
		_, _ = w.Write([]byte(`{"access":"a1","refresh":"r1","user":{"id":7,"username":"bob","email":"bob@example.com"}}`))
	})
	c := newTestClient(t, mux)

	creds, err := c.ExchangeCredentials(context.Background(), "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a1", creds.AccessToken)
	assert.Equal(t, "r1", creds.RefreshToken)
	assert.Equal(t, domain.User{ID: "7", Username: "bob", Email: "bob@example.com"}, creds.User)
}

func TestExchangeCredentials_NoUserFallsBackToIdentifier(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access":"a1","refresh":"r1"}`))
	})
	c := newTestClient(t, mux)

	creds, err := c.ExchangeCredentials(context.Background(), "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "bob", creds.User.Username)
}

func TestExchangeCredentials_Rejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
	})
	c := newTestClient(t, mux)

	_, err := c.ExchangeCredentials(context.Background(), "bob", "bad")
	require.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, "No active account found with the given credentials", err.Error())
}

func TestExchangeCredentials_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, mux)

	_, err := c.ExchangeCredentials(context.Background(), "bob", "bad")
	require.ErrorIs(t, err, domain.ErrCollaborator)
	assert.NotErrorIs(t, err, domain.ErrAuthentication)
}

func TestExchangeCredentials_Unreachable(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1", Logger: zerolog.Nop()})
	require.NoError(t, err)
	_, err = c.ExchangeCredentials(context.Background(), "bob", "secret")
	require.ErrorIs(t, err, domain.ErrCollaborator)
}

func TestCreateAccount_RegistersThenLogsIn(t *testing.T) {
	var order []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/register/", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "register")
		var body registerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, registerRequest{Username: "bob", Email: "bob@example.com", Password: "pw"}, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":3,"username":"bob","email":"bob@example.com"}`))
	})
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "login")
		_, _ = w.Write([]byte(`{"access":"a1","refresh":"r1"}`))
	})
	c := newTestClient(t, mux)

	creds, err := c.CreateAccount(context.Background(), "bob", "bob@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"register", "login"}, order)
	assert.Equal(t, "a1", creds.AccessToken)
	assert.Equal(t, "3", creds.User.ID)
	assert.Equal(t, "bob@example.com", creds.User.Email)
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/register/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"username":["A user with that username already exists."]}`))
	})
	c := newTestClient(t, mux)

	_, err := c.CreateAccount(context.Background(), "bob", "bob@example.com", "pw")
	require.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, "A user with that username already exists.", err.Error())
}

func TestInvalidateSession_SendsBearer(t *testing.T) {
	var auth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/logout/", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.InvalidateSession(context.Background(), "tok"))
	assert.Equal(t, "Bearer tok", auth)
}

func TestRefreshCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		var body refreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Refresh != "r1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access":"a2"}`))
	})
	c := newTestClient(t, mux)

	creds, err := c.RefreshCredentials(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", creds.AccessToken)

	_, err = c.RefreshCredentials(context.Background(), "stale")
	require.Error(t, err)
	assert.True(t, domain.IsUnauthorized(err))
}

func TestCheckSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/authenticated/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"authenticated":true}`))
		case "Bearer soft":
			_, _ = w.Write([]byte(`{"authenticated":false}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.CheckSession(context.Background(), "good"))
	assert.True(t, domain.IsUnauthorized(c.CheckSession(context.Background(), "soft")))
	assert.True(t, domain.IsUnauthorized(c.CheckSession(context.Background(), "bad")))
}

func TestListProducts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/produits/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"Mug","description":"Ceramic","price":"12.99","owner":2,"created_at":"2025-03-01T10:00:00Z","url":"http://img/mug.png"},
			{"id":2,"price":5}
		]`))
	})
	c := newTestClient(t, mux)

	products, err := c.ListProducts(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "Mug", products[0].Name)
	assert.Equal(t, int64(1299), products[0].PriceCents)
	assert.Equal(t, "http://img/mug.png", products[0].ImageURL)
	assert.Equal(t, "2", products[0].Owner)
	assert.Equal(t, 2025, products[0].CreatedAt.Year())
	assert.Equal(t, "Product 2", products[1].Name)
	assert.Equal(t, int64(500), products[1].PriceCents)

	_, err = c.ListProducts(context.Background(), "stale")
	require.Error(t, err)
	assert.True(t, domain.IsUnauthorized(err))
}

func TestDecodeProducts_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"not an array":  `{"foo":1}`,
		"missing id":    `[{"name":"x","price":"1.00"}]`,
		"missing price": `[{"id":1,"name":"x"}]`,
		"bad price":     `[{"id":1,"price":"free"}]`,
		"duplicate id":  `[{"id":1,"price":1},{"id":"1","price":2}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeProducts([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestDecodeProducts_PaginatedEnvelopeAndNegativePrice(t *testing.T) {
	products, err := DecodeProducts([]byte(`{"count":1,"results":[{"id":"x","price":"-3.50"}]}`))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(-350), products[0].PriceCents)
}

func TestParseCents(t *testing.T) {
	cases := map[string]int64{"19.99": 1999, "19.9": 1990, "19": 1900, "0.1": 10, " 2.50 ": 250, "-1.25": -125}
	for raw, want := range cases {
		got, err := ParseCents(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"NaN", "1e30", "-1e30"} {
		_, err := ParseCents(raw)
		assert.Error(t, err, raw)
	}

	_, err := DecodeProducts([]byte(`[{"id":"x","price":"1e30"}]`))
	assert.Error(t, err)
}
