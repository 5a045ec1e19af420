package repository

import (
	"context"
	"fmt"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/validation"
)

// CreateMeal validates the meal before any write is attempted.
func (r *Repository) CreateMeal(ctx context.Context, ownerID string, in models.MealInput) (*models.Meal, error) {
	in, err := validation.Meal(in)
	if err != nil {
		return nil, err
	}

	meal := models.Meal{
		ID:        r.store.NewID(models.MealsCollection),
		UserID:    ownerID,
		Type:      in.Type,
		Name:      in.Name,
		Calories:  in.Calories,
		Protein:   in.Protein,
		Carbs:     in.Carbs,
		Fats:      in.Fats,
		Date:      in.Date,
		Time:      in.Time,
		Image:     in.Image,
		CreatedAt: r.nowMillis(),
	}
	if err := r.store.Set(ctx, models.MealsCollection, meal.ID, meal); err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}
	return &meal, nil
}

func (r *Repository) GetMeal(ctx context.Context, id string) (*models.Meal, error) {
	return getOne[models.Meal](ctx, r, models.MealsCollection, id)
}

// ListMeals returns the owner's meals, newest first. opts.Date restricts the
// list to one day.
func (r *Repository) ListMeals(ctx context.Context, ownerID string, opts models.ListOptions) ([]models.Meal, error) {
	if err := validation.ListOptions(opts); err != nil {
		return nil, err
	}
	q := ownerQuery(models.MealsCollection, ownerID, "date", "createdAt", rangeOf(opts.Date, opts.StartDate, opts.EndDate))
	q.Limit = listLimit(opts.Limit, defaultListLimit)

	var meals []models.Meal
	if err := r.store.Query(ctx, q, &meals); err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

func (r *Repository) UpdateMeal(ctx context.Context, ownerID, id string, patch models.MealUpdate) (*models.Meal, error) {
	patch, err := validation.MealPatch(patch)
	if err != nil {
		return nil, err
	}
	meal, err := getOwned(ctx, r, models.MealsCollection, id, ownerID, func(m *models.Meal) string { return m.UserID })
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Type != nil {
		fields["type"], meal.Type = *patch.Type, *patch.Type
	}
	if patch.Name != nil {
		fields["name"], meal.Name = *patch.Name, *patch.Name
	}
	if patch.Calories != nil {
		fields["calories"], meal.Calories = *patch.Calories, *patch.Calories
	}
	if patch.Protein != nil {
		fields["protein"], meal.Protein = *patch.Protein, patch.Protein
	}
	if patch.Carbs != nil {
		fields["carbs"], meal.Carbs = *patch.Carbs, patch.Carbs
	}
	if patch.Fats != nil {
		fields["fats"], meal.Fats = *patch.Fats, patch.Fats
	}
	if patch.Time != nil {
		fields["time"], meal.Time = *patch.Time, *patch.Time
	}
	if patch.Image != nil {
		fields["image"], meal.Image = *patch.Image, *patch.Image
	}
	if len(fields) == 0 {
		return meal, nil
	}
	if err := r.store.Update(ctx, models.MealsCollection, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}
	return meal, nil
}

func (r *Repository) DeleteMeal(ctx context.Context, ownerID, id string) error {
	_, err := getOwned(ctx, r, models.MealsCollection, id, ownerID, func(m *models.Meal) string { return m.UserID })
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, models.MealsCollection, id); err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return nil
}

// SetWaterIntake upserts the owner's water record for the day. Writing the
// same input twice leaves exactly one record.
func (r *Repository) SetWaterIntake(ctx context.Context, ownerID string, in models.WaterInput) (*models.WaterIntake, error) {
	in, err := validation.Water(in)
	if err != nil {
		return nil, err
	}

	record := models.WaterIntake{
		ID:        models.WaterIntakeID(ownerID, in.Date),
		UserID:    ownerID,
		Date:      in.Date,
		Glasses:   in.Glasses,
		UpdatedAt: r.nowMillis(),
	}
	if err := r.store.Set(ctx, models.WaterIntakeCollection, record.ID, record); err != nil {
		return nil, fmt.Errorf("failed to save water intake: %w", err)
	}
	return &record, nil
}

// GetWaterIntake returns nil when nothing was logged for the day.
func (r *Repository) GetWaterIntake(ctx context.Context, ownerID, date string) (*models.WaterIntake, error) {
	if err := validation.ListOptions(models.ListOptions{Date: date}); err != nil {
		return nil, err
	}
	return getOne[models.WaterIntake](ctx, r, models.WaterIntakeCollection, models.WaterIntakeID(ownerID, date))
}
