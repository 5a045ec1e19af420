package repository

import (
	"context"
	"fmt"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/backend/validation"
)

func (r *Repository) CreateHealthMetric(ctx context.Context, ownerID string, in models.HealthMetricInput) (*models.HealthMetric, error) {
	in, err := validation.HealthMetric(in)
	if err != nil {
		return nil, err
	}

	metric := models.HealthMetric{
		ID:        r.store.NewID(models.HealthMetricsCollection),
		UserID:    ownerID,
		Type:      in.Type,
		Date:      in.Date,
		Notes:     in.Notes,
		CreatedAt: r.nowMillis(),
	}
	switch in.Type {
	case models.MetricMood:
		metric.Mood = in.Mood
	case models.MetricWeight:
		metric.Value, metric.Unit = in.Value, in.Unit
	case models.MetricSleep:
		metric.Value, metric.Quality = in.Value, in.Quality
	default:
		metric.Value = in.Value
	}

	if err := r.store.Set(ctx, models.HealthMetricsCollection, metric.ID, metric); err != nil {
		return nil, fmt.Errorf("failed to create health metric: %w", err)
	}
	return &metric, nil
}

// ListHealthMetrics returns the owner's entries, newest first. opts.Type
// restricts the list to one metric kind.
func (r *Repository) ListHealthMetrics(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.HealthMetric, error) {
	if err := validation.ListOptions(opts); err != nil {
		return nil, err
	}
	q := ownerQuery(models.HealthMetricsCollection, ownerID, "date", "createdAt", rangeOf(opts.Date, opts.StartDate, opts.EndDate))
	if opts.Type != "" {
		q = q.Where("type", persistent.OpEqual, opts.Type)
	}
	q.Limit = listLimit(opts.Limit, defaultListLimit)

	var metrics []models.HealthMetric
	if err := r.store.Query(ctx, q, &metrics); err != nil {
		return nil, fmt.Errorf("failed to list health metrics: %w", err)
	}
	return metrics, nil
}

func (r *Repository) DeleteHealthMetric(ctx context.Context, ownerID, id string) error {
	_, err := getOwned(ctx, r, models.HealthMetricsCollection, id, ownerID, func(m *models.HealthMetric) string { return m.UserID })
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, models.HealthMetricsCollection, id); err != nil {
		return fmt.Errorf("failed to delete health metric: %w", err)
	}
	return nil
}
