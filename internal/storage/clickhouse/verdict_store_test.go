package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/storage"
)

func TestVerdictStore_InsertAndGetByToken(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVerdictStore(conn)
	ctx := context.Background()

	first := &domain.SecurityVerdict{
		TokenAddress: "0xaaa",
		Score:        93,
		Safe:         true,
		Fresh:        false,
		Threshold:    80,
		Checks: []domain.CheckResult{
			{Name: domain.CheckHoneypot, Safe: true, Score: 100},
			{Name: domain.CheckTax, Safe: true, Score: 80, Reason: "buy 2.0% sell 2.0%"},
		},
		Risks:     nil,
		Strengths: []string{"honeypot_check", "tax_analysis"},
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
	second := &domain.SecurityVerdict{
		TokenAddress: "0xaaa",
		Score:        45,
		Safe:         false,
		Fresh:        true,
		Threshold:    60,
		Risks:        []string{"honeypot_check"},
		Timestamp:    first.Timestamp.Add(time.Minute),
	}

	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, second))
	require.NoError(t, store.Insert(ctx, &domain.SecurityVerdict{
		TokenAddress: "0xbbb",
		Score:        10,
		Threshold:    80,
		Timestamp:    first.Timestamp,
	}))

	got, err := store.GetByToken(ctx, "0xaaa")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 93, got[0].Score)
	assert.True(t, got[0].Safe)
	assert.False(t, got[0].Fresh)
	assert.Equal(t, 80, got[0].Threshold)
	assert.Equal(t, []string{"honeypot_check", "tax_analysis"}, got[0].Strengths)
	require.Len(t, got[0].Checks, 2)
	assert.Equal(t, domain.CheckTax, got[0].Checks[1].Name)
	assert.Equal(t, "buy 2.0% sell 2.0%", got[0].Checks[1].Reason)

	assert.Equal(t, 45, got[1].Score)
	assert.False(t, got[1].Safe)
	assert.True(t, got[1].Fresh)
	assert.Equal(t, []string{"honeypot_check"}, got[1].Risks)
}

func TestVerdictStore_GetByToken_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVerdictStore(conn)
	got, err := store.GetByToken(context.Background(), "0xmissing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVerdictStore_InsertInvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVerdictStore(conn)
	assert.ErrorIs(t, store.Insert(context.Background(), nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(context.Background(), &domain.SecurityVerdict{}), storage.ErrInvalidInput)
}
