package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rafatrasulov/rasulov-school/internal/models"
)

type CreateSlotInput struct {
	StartTime       time.Time
	DurationMinutes int
	Type            models.SlotType
	Status          models.SlotStatus
	Capacity        int
}

type UpdateSlotInput struct {
	StartTime       *time.Time
	DurationMinutes *int
	Type            *models.SlotType
	Status          *models.SlotStatus
	Capacity        *int
}

type SlotListFilter struct {
	Statuses []models.SlotStatus
	From     time.Time
	To       time.Time
}

const slotColumns = "id, start_time, duration_minutes, type, status, capacity, created_at, updated_at"

type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, input CreateSlotInput) (*models.Slot, error) {
	query := `
		INSERT INTO slots (id, start_time, duration_minutes, type, status, capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + slotColumns + `
	`
	var slot models.Slot
	err := r.db.QueryRow(
		ctx,
		query,
		uuid.NewString(),
		input.StartTime,
		input.DurationMinutes,
		input.Type,
		input.Status,
		input.Capacity,
	).Scan(
		&slot.ID,
		&slot.StartTime,
		&slot.DurationMinutes,
		&slot.Type,
		&slot.Status,
		&slot.Capacity,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *SlotRepository) GetByID(ctx context.Context, slotID string) (*models.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE id = $1
	`
	var slot models.Slot
	err := r.db.QueryRow(ctx, query, slotID).Scan(
		&slot.ID,
		&slot.StartTime,
		&slot.DurationMinutes,
		&slot.Type,
		&slot.Status,
		&slot.Capacity,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *SlotRepository) UpdatePartial(ctx context.Context, slotID string, input UpdateSlotInput) (*models.Slot, error) {
	query := `
		UPDATE slots
		SET start_time = COALESCE($2, start_time),
			duration_minutes = COALESCE($3, duration_minutes),
			type = COALESCE($4, type),
			status = COALESCE($5, status),
			capacity = COALESCE($6, capacity),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + slotColumns + `
	`
	var slot models.Slot
	err := r.db.QueryRow(
		ctx,
		query,
		slotID,
		input.StartTime,
		input.DurationMinutes,
		input.Type,
		input.Status,
		input.Capacity,
	).Scan(
		&slot.ID,
		&slot.StartTime,
		&slot.DurationMinutes,
		&slot.Type,
		&slot.Status,
		&slot.Capacity,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *SlotRepository) Delete(ctx context.Context, slotID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM slots WHERE id = $1`, slotID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SlotRepository) List(ctx context.Context, filter SlotListFilter) ([]models.Slot, error) {
	args := []any{}
	whereParts := []string{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		args = append(args, statuses)
		whereParts = append(whereParts, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		whereParts = append(whereParts, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		whereParts = append(whereParts, fmt.Sprintf("start_time < $%d", len(args)))
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM slots
		%s
		ORDER BY start_time ASC, id ASC
	`, slotColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]models.Slot, 0)
	for rows.Next() {
		var slot models.Slot
		if err := rows.Scan(
			&slot.ID,
			&slot.StartTime,
			&slot.DurationMinutes,
			&slot.Type,
			&slot.Status,
			&slot.Capacity,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *SlotRepository) GetByIDs(ctx context.Context, slotIDs []string) (map[string]models.Slot, error) {
	slotsByID := make(map[string]models.Slot, len(slotIDs))
	if len(slotIDs) == 0 {
		return slotsByID, nil
	}

	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, slotIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var slot models.Slot
		if err := rows.Scan(
			&slot.ID,
			&slot.StartTime,
			&slot.DurationMinutes,
			&slot.Type,
			&slot.Status,
			&slot.Capacity,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		slotsByID[slot.ID] = slot
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slotsByID, nil
}

// ClaimIfFree flips a free slot to booked in one conditional statement.
// The row lock taken by the UPDATE is what serializes concurrent claimers.
func (r *SlotRepository) ClaimIfFree(ctx context.Context, slotID string) (bool, error) {
	query := `
		UPDATE slots
		SET status = 'booked', updated_at = NOW()
		WHERE id = $1 AND status = 'free'
	`
	tag, err := r.db.Exec(ctx, query, slotID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
