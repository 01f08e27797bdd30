package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/checkout-floor/internal/domain/checkout"
)

// --- Helpers ---

type stateResponse struct {
	Registers map[string][]string `json:"registers"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newTestRouter(t *testing.T, registers int) (*mux.Router, *checkout.Floor) {
	t.Helper()

	floor, err := checkout.NewFloor(registers)
	require.NoError(t, err)

	h, err := NewHandler(floor, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	router := mux.NewRouter()
	h.Register(router)
	return router, floor
}

func postForm(t *testing.T, router http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func addItem(t *testing.T, router http.Handler, customerID, itemID string) *httptest.ResponseRecorder {
	t.Helper()

	return postForm(t, router, "/add", url.Values{
		"customer_id": {customerID},
		"item_id":     {itemID},
	})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

// --- Tests ---

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAdd_Scenario(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	w := addItem(t, router, "c1", "apple")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decode[stateResponse](t, w)
	assert.Equal(t, map[string][]string{"0": {"c1"}, "1": {}}, body.Registers)

	w = addItem(t, router, "c2", "banana")
	require.Equal(t, http.StatusCreated, w.Code)
	body = decode[stateResponse](t, w)
	assert.Equal(t, map[string][]string{"0": {"c1"}, "1": {"c2"}}, body.Registers)

	w = addItem(t, router, "c1", "pear")
	require.Equal(t, http.StatusCreated, w.Code)
	body = decode[stateResponse](t, w)
	assert.Equal(t, map[string][]string{"0": {"c1", "c1"}, "1": {"c2"}}, body.Registers)

	w = postForm(t, router, "/checkout", url.Values{"customer_id": {"c1"}})
	require.Equal(t, http.StatusCreated, w.Code)
	body = decode[stateResponse](t, w)
	assert.Equal(t, map[string][]string{"0": {}, "1": {"c2"}}, body.Registers)

	w = postForm(t, router, "/checkout", url.Values{"customer_id": {"c1"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decode[errorResponse](t, w)
	assert.Equal(t, http.StatusBadRequest, errBody.Code)
	assert.Contains(t, errBody.Message, "c1")
}

func TestAdd_JSONBody(t *testing.T) {
	router, floor := newTestRouter(t, 3)

	req := httptest.NewRequest(http.MethodPost, "/add",
		strings.NewReader(`{"customer_id": 42, "item_id": "milk", "note": {"x": [1, 2]}}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	r, ok := floor.Current().RegisterOf("42")
	require.True(t, ok)
	assert.Equal(t, 0, r.ID())
}

func TestAdd_InvalidJSON(t *testing.T) {
	router, _ := newTestRouter(t, 3)

	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(`{"customer_id": [`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdd_MissingFields(t *testing.T) {
	router, floor := newTestRouter(t, 2)

	w := postForm(t, router, "/add", url.Values{"customer_id": {"c1"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Message, "item_id")

	w = postForm(t, router, "/add", url.Values{"item_id": {"apple"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Message, "customer_id")

	assert.Zero(t, floor.Current().PendingItems())
}

func TestCheckout_MissingCustomer(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	w := postForm(t, router, "/checkout", url.Values{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout_RouteKeptWhenRegisterRejects(t *testing.T) {
	router, floor := newTestRouter(t, 2)
	require.Equal(t, http.StatusCreated, addItem(t, router, "c1", "apple").Code)

	// Corrupt the floor: the register forgets the cart but the route remains.
	r, ok := floor.Current().RegisterOf("c1")
	require.True(t, ok)
	require.NoError(t, r.CheckoutCart("c1"))

	w := postForm(t, router, "/checkout", url.Values{"customer_id": {"c1"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, ok = floor.Current().RegisterOf("c1")
	assert.True(t, ok)
}

func TestState_ReadOnly(t *testing.T) {
	router, floor := newTestRouter(t, 3)
	require.Equal(t, http.StatusCreated, addItem(t, router, "c1", "apple").Code)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/state", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[stateResponse](t, w)
	assert.Equal(t, map[string][]string{"0": {"c1"}, "1": {}, "2": {}}, body.Registers)
	assert.Equal(t, 1, floor.Current().PendingItems())
}

func TestReset(t *testing.T) {
	router, floor := newTestRouter(t, 4)
	require.Equal(t, http.StatusCreated, addItem(t, router, "c1", "apple").Code)
	require.Equal(t, http.StatusCreated, addItem(t, router, "c2", "pear").Code)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/state", nil))
	require.Equal(t, http.StatusOK, w.Code)

	state := floor.State()
	require.Len(t, state, 4)
	for id, items := range state {
		assert.Empty(t, items, "register %d", id)
	}

	w = postForm(t, router, "/checkout", url.Values{"customer_id": {"c1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/add", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEncodeState_OrderedKeys(t *testing.T) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	encodeState(e, map[int][]string{
		10: {"c3"},
		2:  {"c1", "c1"},
		0:  {},
	})

	assert.Equal(t, `{"registers":{"0":[],"2":["c1","c1"],"10":["c3"]}}`, string(e.Bytes()))
}

func TestWriteFloorError(t *testing.T) {
	h := &Handler{}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"cart not found", &checkout.CartNotFoundError{CustomerID: "c1"}, http.StatusBadRequest},
		{"invariant violation", errors.Wrap(checkout.ErrInvariantViolation, "no register selected"), http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.writeFloorError(w, httptest.NewRequest(http.MethodPost, "/add", nil), tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.status, decode[errorResponse](t, w).Code)
		})
	}
}
