package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func newTestServer(t *testing.T, status int, response string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &captured.Body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateLineSendsOnlyPresentFields(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusCreated, `{"id": 41, "product": null, "description": "Tirage câble", "quantity": 3, "unit_price": "150.00", "discount": "0.00"}`, &got)
	client := New(Config{BaseURL: srv.URL + "/api/", Token: "secret"}, nil)

	created, err := client.CreateLine(context.Background(), 7, domain.Line{
		Description: "Tirage câble",
		Quantity:    3,
		UnitPrice:   decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/invoices/7/lines/", got.Path)
	assert.Equal(t, "Bearer secret", got.Auth)
	assert.Equal(t, "150", got.Body["unit_price"])
	assert.EqualValues(t, 3, got.Body["quantity"])
	assert.NotContains(t, got.Body, "product")
	assert.NotContains(t, got.Body, "discount")

	require.NotNil(t, created.ID)
	assert.Equal(t, int64(41), *created.ID)
	assert.True(t, created.LineTotal.Equal(decimal.NewFromInt(450)))
}

func TestUpdateLineSendsChangedSubset(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"id": 5, "description": "x", "quantity": 9, "unit_price": 10, "discount": 0}`, &got)
	client := New(Config{BaseURL: srv.URL}, nil)

	_, err := client.UpdateLine(context.Background(), 7, 5, domain.Line{Quantity: 9, Description: "ignored"}, []domain.Field{domain.FieldQuantity, domain.FieldProduct})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, got.Method)
	assert.Equal(t, "/invoices/7/lines/5/", got.Path)
	assert.Empty(t, got.Auth)
	assert.Len(t, got.Body, 2)
	assert.EqualValues(t, 9, got.Body["quantity"])
	assert.Contains(t, got.Body, "product")
	assert.Nil(t, got.Body["product"])
}

func TestDeleteLine(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusNoContent, ``, &got)
	client := New(Config{BaseURL: srv.URL}, nil)

	require.NoError(t, client.DeleteLine(context.Background(), 7, 12))
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/invoices/7/lines/12/", got.Path)
}

func TestListLinesAcceptsPagedAndPlainBodies(t *testing.T) {
	var got capturedRequest
	plain := newTestServer(t, http.StatusOK, `[{"id": 1, "description": "a", "quantity": 2, "unit_price": "5"}]`, &got)
	paged := newTestServer(t, http.StatusOK, `{"count": 1, "results": [{"id": 2, "description": "b", "quantity": 1, "unit_price": "8"}]}`, &got)

	lines, err := New(Config{BaseURL: plain.URL}, nil).ListLines(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].LineTotal.Equal(decimal.NewFromInt(10)))

	lines, err = New(Config{BaseURL: paged.URL}, nil).ListLines(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), *lines[0].ID)
}

func TestErrorStatusIsTypedAndClassified(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusInternalServerError, `{"detail": "OperationalError: database is locked"}`, &got)
	client := New(Config{BaseURL: srv.URL}, nil)

	err := client.DeleteLine(context.Background(), 1, 2)
	require.Error(t, err)

	remoteErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)

	isContention := ContentionPredicate("Database is LOCKED")
	assert.True(t, isContention(err))
	assert.False(t, ContentionPredicate("deadlock")(err))
}

func TestContentionPredicateMatchesPlainErrors(t *testing.T) {
	isContention := ContentionPredicate("", "database is locked")

	assert.True(t, isContention(errors.New("sqlite3: database is locked")))
	assert.False(t, isContention(errors.New("permission denied")))
	assert.False(t, isContention(nil))
	assert.False(t, ContentionPredicate()(errors.New("database is locked")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&Error{StatusCode: http.StatusNotFound}))
	assert.False(t, IsNotFound(errors.New("boom")))
}
