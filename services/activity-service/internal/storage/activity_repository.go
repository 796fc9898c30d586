package storage

import (
	"context"
	"encoding/json"

	"github.com/Sahej121/financial-app-sub002/libs/db"
	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/model"
)

type ActivityRepository struct {
	pool *db.Pool
}

func NewActivityRepository(pool *db.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) Insert(ctx context.Context, a *model.Activity) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO activities (user_id, user_type, activity_type, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.UserID, a.UserType, a.ActivityType, a.Description, meta).Scan(&a.ID, &a.CreatedAt)
}

// List returns a user's newest activities first. userType narrows the match
// so an analyst and a client sharing an identifier do not see each other's
// feed.
func (r *ActivityRepository) List(ctx context.Context, userID string, userType model.UserType, limit int) ([]model.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, user_type, activity_type, description, metadata, created_at
		FROM activities
		WHERE user_id = $1 AND user_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, userID, userType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		var a model.Activity
		var meta []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserType, &a.ActivityType, &a.Description, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, err
			}
		}
		activities = append(activities, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return activities, nil
}
