package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/infrastructure/clients/postgres"
)

func newTestAdapter(t *testing.T) (*PreferenceAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewPreferenceAdapter(postgres.NewClientFromDB(db)).(*PreferenceAdapter)
	return adapter, mock
}

func TestPreferenceAdapter_Upsert(t *testing.T) {
	adapter, mock := newTestAdapter(t)

	mock.ExpectExec(`INSERT INTO "user_preferences"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Upsert(context.Background(), &entities.UserPreference{
		UserID:    "user-1",
		Kind:      entities.PreferenceKindBrand,
		Value:     "nike",
		Weight:    2.65,
		UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceAdapter_ProfileFor(t *testing.T) {
	adapter, mock := newTestAdapter(t)

	rows := sqlmock.NewRows([]string{"kind", "value", "weight"}).
		AddRow("brand", "nike", 3.1).
		AddRow("brand", "adidas", 2.2).
		AddRow("merchant", "rei.com", 2.7)

	mock.ExpectQuery(`SELECT "kind", "value", "weight" FROM "user_preferences"`).
		WithArgs("user-1").
		WillReturnRows(rows)

	profile, err := adapter.ProfileFor(context.Background(), "user-1")
	require.NoError(t, err)

	assert.InDelta(t, 3.1, profile.WeightFor(entities.PreferenceKindBrand, "nike"), 0.0001)
	assert.InDelta(t, 2.2, profile.WeightFor(entities.PreferenceKindBrand, "adidas"), 0.0001)
	assert.InDelta(t, 2.7, profile.WeightFor(entities.PreferenceKindMerchant, "rei.com"), 0.0001)
	assert.InDelta(t, entities.NeutralPreferenceWeight, profile.WeightFor(entities.PreferenceKindSource, "ebay_browse"), 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceAdapter_ProfileFor_Empty(t *testing.T) {
	adapter, mock := newTestAdapter(t)

	mock.ExpectQuery(`SELECT "kind", "value", "weight" FROM "user_preferences"`).
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "value", "weight"}))

	profile, err := adapter.ProfileFor(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Empty(t, profile)
	assert.NoError(t, mock.ExpectationsWereMet())
}
