package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/smallbiznis/fiberdesk/internal/wizard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() domain.Session {
	id := int64(7)
	return domain.Session{
		ID:        "1843",
		InvoiceID: 42,
		Existing: []linedomain.ExistingLine{
			{ID: 7, Description: "Câble 12FO", Quantity: 100, UnitPrice: decimal.RequireFromString("35.50")},
		},
		Lines: []linedomain.Line{
			{ID: &id, Description: "Câble 12FO", Quantity: 100, UnitPrice: decimal.RequireFromString("35.50")},
			linedomain.NewLine("Soudure", decimal.NewFromInt(800)),
		},
		OpenedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "1843")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, sampleSession(), time.Minute))

	got, err := s.Get(ctx, "1843")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.InvoiceID)
	require.Len(t, got.Lines, 2)

	require.NoError(t, s.Delete(ctx, "1843"))
	_, err = s.Get(ctx, "1843")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, sampleSession(), time.Minute))

	first, err := s.Get(ctx, "1843")
	require.NoError(t, err)
	first.Lines[0].Description = "edited"

	second, err := s.Get(ctx, "1843")
	require.NoError(t, err)
	assert.Equal(t, "Câble 12FO", second.Lines[0].Description)
}

func TestMemoryStoreClosedMarkerOutlivesSession(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, sampleSession(), time.Minute))

	closed, err := s.IsClosed(ctx, "1843")
	require.NoError(t, err)
	assert.False(t, closed)

	require.NoError(t, s.MarkClosed(ctx, "1843", time.Minute))
	require.NoError(t, s.Delete(ctx, "1843"))

	closed, err = s.IsClosed(ctx, " 1843 ")
	require.NoError(t, err)
	assert.True(t, closed)

	assert.ErrorIs(t, s.MarkClosed(ctx, "", time.Minute), domain.ErrInvalidSession)
}

func TestMemoryStoreRejectsMissingID(t *testing.T) {
	err := NewMemoryStore().Save(context.Background(), domain.Session{}, time.Minute)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestRedisEncodingKeepsExactAmounts(t *testing.T) {
	raw, err := json.Marshal(sampleSession())
	require.NoError(t, err)

	var decoded domain.Session
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.True(t, decoded.Existing[0].UnitPrice.Equal(decimal.RequireFromString("35.50")))
	require.NotNil(t, decoded.Lines[0].ID)
	assert.Equal(t, int64(7), *decoded.Lines[0].ID)
	assert.Nil(t, decoded.Lines[1].ID)
	assert.Equal(t, "fiberdesk:wizard:session:1843", sessionKey("1843"))
	assert.Equal(t, "fiberdesk:wizard:closed:1843", closedKey("1843"))
}
