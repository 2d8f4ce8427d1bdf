package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
)

// Alert is a management-visible event raised by the engine. Alerts are
// informational only and never feed back into shift or ledger state.
type Alert struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessUnitID uuid.UUID       `gorm:"type:uuid;not null;index" json:"business_unit_id"`
	Type           enums.AlertType `gorm:"type:alert_type;not null" json:"type"`
	StaffName      string          `gorm:"type:text;not null" json:"staff_name"`
	Message        string          `gorm:"type:text;not null" json:"message"`
	ReadAt         *time.Time      `gorm:"type:timestamptz" json:"read_at,omitempty"`
	CreatedAt      time.Time       `gorm:"type:timestamptz;default:now()" json:"created_at"`
}
