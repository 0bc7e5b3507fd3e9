package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/repositories"
	"github.com/kyrelabs/dealsource/internal/infrastructure/clients/postgres"
	apperrors "github.com/kyrelabs/dealsource/pkg/errors"
)

const preferencesTable = "user_preferences"

// PreferenceAdapter implements the PreferenceRepository interface using PostgreSQL
type PreferenceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPreferenceAdapter creates a new PostgreSQL preference adapter
func NewPreferenceAdapter(client *postgres.Client) repositories.PreferenceRepository {
	return &PreferenceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert inserts or updates a preference weight for a user
func (a *PreferenceAdapter) Upsert(ctx context.Context, pref *entities.UserPreference) error {
	now := time.Now().UTC()

	record := goqu.Record{
		"user_id":    pref.UserID,
		"kind":       string(pref.Kind),
		"value":      pref.Value,
		"weight":     pref.Weight,
		"updated_at": now,
	}

	query, args, err := a.db.Insert(preferencesTable).
		Rows(record).
		OnConflict(goqu.DoUpdate(
			"user_id, kind, value",
			goqu.Record{
				"weight":     pref.Weight,
				"updated_at": now,
			},
		)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build preference upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert preference", err)
	}

	return nil
}

// ProfileFor loads all preference weights for a user, grouped by kind
func (a *PreferenceAdapter) ProfileFor(ctx context.Context, userID string) (entities.PreferenceProfile, error) {
	query, args, err := a.db.From(preferencesTable).
		Select("kind", "value", "weight").
		Where(goqu.Ex{"user_id": userID}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build preference query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query preferences", err)
	}
	defer rows.Close()

	profile := make(entities.PreferenceProfile)
	for rows.Next() {
		var kind, value string
		var weight float64
		if err := rows.Scan(&kind, &value, &weight); err != nil {
			return nil, apperrors.NewInternalError("failed to scan preference row", err)
		}
		k := entities.PreferenceKind(kind)
		if profile[k] == nil {
			profile[k] = make(map[string]float64)
		}
		profile[k][value] = weight
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read preference rows", err)
	}

	return profile, nil
}
