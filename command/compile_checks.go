package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-mailchimp/core"
)

var (
	_ gocmd.Commander[AddMemberMessage]     = (*AddMemberCommand)(nil)
	_ gocmd.Commander[PruneActivityMessage] = (*PruneActivityCommand)(nil)

	_ MemberWriter = (*core.Client)(nil)
)
