package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func idempotentHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"order_id":"` + uuid.NewString() + `"}}`))
	})
}

func checkoutRequest(userID uuid.UUID, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req.WithContext(WithUserID(req.Context(), userID))
}

func TestIdempotencyRequiresKeyOnCheckout(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryStore(), nil)(idempotentHandler(&calls))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequest(uuid.New(), "", `{"payment_method":"COD"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without key got %d", resp.Code)
	}
	if calls != 0 {
		t.Fatalf("handler should not run without a key, got %d calls", calls)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryStore(), nil)(idempotentHandler(&calls))
	userID := uuid.New()
	body := `{"payment_method":"COD"}`

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, checkoutRequest(userID, "key-1", body))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first call got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, checkoutRequest(userID, "key-1", body))
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, got %d calls", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("expected replay to return the stored body")
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryStore(), nil)(idempotentHandler(&calls))
	userID := uuid.New()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, checkoutRequest(userID, "key-1", `{"payment_method":"COD"}`))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first call got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, checkoutRequest(userID, "key-1", `{"payment_method":"ONLINE"}`))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 for mismatched body got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, got %d calls", calls)
	}
}

func TestIdempotencyScopedPerUser(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryStore(), nil)(idempotentHandler(&calls))
	body := `{"payment_method":"COD"}`

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, checkoutRequest(uuid.New(), "shared-key", body))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, checkoutRequest(uuid.New(), "shared-key", body))

	if calls != 2 {
		t.Fatalf("expected distinct users to each place an order, got %d calls", calls)
	}
}

func TestIdempotencyIgnoresUnprotectedRoutes(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryStore(), nil)(idempotentHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if calls != 1 {
		t.Fatalf("expected pass-through for unmatched route, got %d calls", calls)
	}
}
