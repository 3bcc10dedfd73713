package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
)

// MachineEventRecord is the transactional outbox row. It is written inside
// the same DB transaction as the domain change; a background dispatcher
// publishes it to Pub/Sub after commit.
type MachineEventRecord struct {
	ID            int                       `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	BusinessId    string                    `gorm:"size:64;not null;index" json:"business_id"`
	OccurredAt    time.Time                 `gorm:"index;not null" json:"occurred_at"`
	ReferenceId   int                       `json:"reference_id"`
	ReferenceType MachineEventReferenceType `gorm:"type:enum('MC','MR','SM','JR','ME','EH')" json:"reference_type"`
	Action        MachineEventAction        `gorm:"type:enum('C','U','D')" json:"action"`
	OldObj        []byte                    `gorm:"type:blob" json:"old_obj"`
	NewObj        []byte                    `gorm:"type:blob" json:"new_obj"`
	IsProcessed   bool                      `gorm:"index;not null" json:"is_processed"`
	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToMachineEvent(record MachineEventRecord) config.MachineEvent {
	return config.MachineEvent{
		ID:            record.ID,
		BusinessId:    record.BusinessId,
		OccurredAt:    record.OccurredAt,
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		Action:        string(record.Action),
		Payload:       record.NewObj,
		CorrelationId: record.CorrelationId,
	}
}

// RequeueDeadEvents flips DEAD outbox rows of a business back to PENDING so
// the dispatcher picks them up again. Admin-only replay path.
func RequeueDeadEvents(ctx context.Context, businessId string) (int64, error) {
	if businessId == "" {
		return 0, errors.New("business id is required")
	}
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&MachineEventRecord{}).
		Where("business_id = ? AND publish_status = ?", businessId, OutboxPublishStatusDead).
		Updates(map[string]interface{}{
			"publish_status":     OutboxPublishStatusPending,
			"publish_attempts":   0,
			"next_attempt_at":    nil,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListOutboxStatus summarizes pending/failed/dead counts for monitoring.
func ListOutboxStatus(ctx context.Context) (map[string]int64, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	type statusCount struct {
		PublishStatus string
		Total         int64
	}
	var rows []statusCount
	if err := db.WithContext(ctx).Model(&MachineEventRecord{}).
		Where("business_id = ?", businessId).
		Select("publish_status, count(*) as total").
		Group("publish_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PublishStatus] = row.Total
	}
	return counts, nil
}
