package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-mailchimp/core"
)

type MemberWriter interface {
	AddMember(ctx context.Context, listID string, member core.NewMember) (core.Object, error)
}

type PruneResult struct {
	Deleted int
}

type AddMemberCommand struct {
	writer MemberWriter
}

func NewAddMemberCommand(writer MemberWriter) *AddMemberCommand {
	return &AddMemberCommand{writer: writer}
}

func (c *AddMemberCommand) Execute(ctx context.Context, msg AddMemberMessage) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: member writer is required")
	}
	out, err := c.writer.AddMember(ctx, msg.ListID, msg.Member)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type PruneActivityCommand struct {
	pruner core.ActivityPruner
}

func NewPruneActivityCommand(pruner core.ActivityPruner) *PruneActivityCommand {
	return &PruneActivityCommand{pruner: pruner}
}

func (c *PruneActivityCommand) Execute(ctx context.Context, msg PruneActivityMessage) error {
	if c == nil || c.pruner == nil {
		return commandDependencyError("command: activity pruner is required")
	}
	deleted, err := c.pruner.Prune(ctx, msg.Policy)
	if err != nil {
		return err
	}
	storeResult(ctx, PruneResult{Deleted: deleted})
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
