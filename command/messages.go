package command

import (
	"strings"

	"github.com/goliatone/go-mailchimp/core"
)

const (
	TypeAddMember     = "mailchimp.command.member.add"
	TypePruneActivity = "mailchimp.command.activity.prune"
)

var memberStatuses = map[string]struct{}{
	"subscribed":    {},
	"unsubscribed":  {},
	"cleaned":       {},
	"pending":       {},
	"transactional": {},
}

type AddMemberMessage struct {
	ListID string
	Member core.NewMember
}

func (AddMemberMessage) Type() string { return TypeAddMember }

func (m AddMemberMessage) Validate() error {
	if strings.TrimSpace(m.ListID) == "" {
		return commandValidationError("list_id", "is required")
	}
	email := strings.TrimSpace(m.Member.Email)
	if email == "" {
		return commandValidationError("email", "is required")
	}
	if !strings.Contains(email, "@") {
		return commandValidationError("email", "must be an email address")
	}
	if status := strings.TrimSpace(m.Member.Status); status != "" {
		if _, ok := memberStatuses[status]; !ok {
			return commandValidationError("status", "unknown member status "+status)
		}
	}
	return nil
}

type PruneActivityMessage struct {
	Policy core.ActivityRetentionPolicy
}

func (PruneActivityMessage) Type() string { return TypePruneActivity }

func (m PruneActivityMessage) Validate() error {
	if m.Policy.TTL < 0 {
		return commandValidationError("ttl", "must be >= 0")
	}
	if m.Policy.RowCap < 0 {
		return commandValidationError("row_cap", "must be >= 0")
	}
	if m.Policy.TTL == 0 && m.Policy.RowCap == 0 {
		return commandValidationError("policy", "ttl or row_cap is required")
	}
	return nil
}
