package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

const activityTable = "mailchimp_request_activity"

type requestActivityRecord struct {
	bun.BaseModel `bun:"table:mailchimp_request_activity,alias:mra"`

	ID         string    `bun:"id,pk"`
	Operation  string    `bun:"operation,notnull"`
	Method     string    `bun:"method,notnull"`
	Path       string    `bun:"path,notnull"`
	Datacenter string    `bun:"datacenter,notnull"`
	Status     int       `bun:"status,notnull"`
	Outcome    string    `bun:"outcome,notnull"`
	ErrorType  string    `bun:"error_type,notnull"`
	DurationMS int64     `bun:"duration_ms,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
