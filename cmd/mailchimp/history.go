package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-mailchimp/adapters/gocommand"
	mccommand "github.com/goliatone/go-mailchimp/command"
	"github.com/goliatone/go-mailchimp/core"
	mcquery "github.com/goliatone/go-mailchimp/query"
	sqlstore "github.com/goliatone/go-mailchimp/store/sql"
)

type historyEntry struct {
	ID         string `json:"id"`
	Operation  string `json:"operation"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Datacenter string `json:"datacenter,omitempty"`
	Status     int    `json:"status,omitempty"`
	Outcome    string `json:"outcome"`
	ErrorType  string `json:"errorType,omitempty"`
	DurationMS int64  `json:"durationMs"`
	CreatedAt  string `json:"createdAt"`
}

func toHistoryEntry(entry core.ActivityEntry) historyEntry {
	return historyEntry{
		ID:         entry.ID,
		Operation:  entry.Operation,
		Method:     entry.Method,
		Path:       entry.Path,
		Datacenter: entry.Datacenter,
		Status:     entry.Status,
		Outcome:    string(entry.Outcome),
		ErrorType:  entry.ErrorType,
		DurationMS: entry.DurationMS,
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// runHistory lists or prunes the request history. It needs no credential
// and no datacenter.
func (a *app) runHistory(ctx context.Context, opts options, provider glog.LoggerProvider) int {
	loaded, err := a.configProvider(opts).Load(ctx, core.DefaultConfig())
	if err != nil {
		return a.fail(opts, err)
	}
	history := loaded.History
	if strings.TrimSpace(opts.historyDB) != "" {
		history = runtimeConfig(opts).History
	}
	if !history.Enabled || strings.TrimSpace(history.DSN) == "" {
		return a.fail(opts, usage("history is not enabled", "Pass --history-db <file> or set "+core.EnvHistoryDSN))
	}

	store, err := sqlstore.Open(ctx, history)
	if err != nil {
		return a.fail(opts, err)
	}
	defer store.Close()
	provider.GetLogger("mailchimp.history").Debug("history store opened", "driver", history.Driver)

	if opts.prune {
		return a.pruneHistory(ctx, opts, store, provider)
	}
	return a.listHistory(ctx, opts, store, provider)
}

func (a *app) listHistory(ctx context.Context, opts options, store *sqlstore.Store, provider glog.LoggerProvider) int {
	filter := core.ActivityFilter{
		Limit:     opts.count,
		Offset:    opts.offset,
		Operation: strings.TrimSpace(opts.operation),
		Outcome:   core.ActivityOutcome(strings.ToLower(strings.TrimSpace(opts.outcome))),
	}
	if since := strings.TrimSpace(opts.since); since != "" {
		parsed, err := parseSince(since)
		if err != nil {
			return a.fail(opts, usage("invalid --since value "+since, "Use RFC 3339 (2026-01-02T15:04:05Z) or a date (2026-01-02)"))
		}
		filter.Since = &parsed
	}

	sub := gocommand.SubscribeQuery[mcquery.ListActivityMessage, core.ActivityPage](mcquery.NewListActivityQuery(store.Activity()), dispatchOptions(provider)...)
	defer sub.Unsubscribe()

	page, err := gocommand.Ask[mcquery.ListActivityMessage, core.ActivityPage](ctx, mcquery.ListActivityMessage{Filter: filter})
	if err != nil {
		return a.fail(opts, err)
	}

	entries := make([]historyEntry, 0, len(page.Items))
	for _, item := range page.Items {
		entries = append(entries, toHistoryEntry(item))
	}
	if !opts.summary {
		if err := writeJSON(a.stdout, map[string]any{
			"entries": entries,
			"total":   page.Total,
			"limit":   page.Limit,
			"offset":  page.Offset,
			"hasNext": page.HasNext,
		}); err != nil {
			return a.fail(opts, err)
		}
		return 0
	}
	fmt.Fprintf(a.stdout, "Found %d request(s):\n\n", page.Total)
	for _, entry := range entries {
		status := "-"
		if entry.Status > 0 {
			status = fmt.Sprintf("%d", entry.Status)
		}
		fmt.Fprintf(a.stdout, "%s %s %s %s %s %dms [%s]\n",
			entry.CreatedAt, entry.Method, entry.Path, status, entry.Outcome, entry.DurationMS, entry.Operation)
	}
	return 0
}

func (a *app) pruneHistory(ctx context.Context, opts options, store *sqlstore.Store, provider glog.LoggerProvider) int {
	sub := gocommand.SubscribeCommand[mccommand.PruneActivityMessage](mccommand.NewPruneActivityCommand(store.Activity()), dispatchOptions(provider)...)
	defer sub.Unsubscribe()

	result, _, err := gocommand.Execute[mccommand.PruneActivityMessage, mccommand.PruneResult](ctx, mccommand.PruneActivityMessage{
		Policy: core.ActivityRetentionPolicy{TTL: opts.ttl, RowCap: opts.keep},
	})
	if err != nil {
		return a.fail(opts, err)
	}
	if !opts.summary {
		if err := writeJSON(a.stdout, map[string]any{"deleted": result.Deleted}); err != nil {
			return a.fail(opts, err)
		}
		return 0
	}
	fmt.Fprintf(a.stdout, "Deleted %d entr(ies)\n", result.Deleted)
	return 0
}

func parseSince(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.DateOnly, value)
}

// runSeal prints value sealed with the host key so it can be stored in
// tokens.yaml.
func (a *app) runSeal(args []string) int {
	value := arg(args, 0)
	if value == "" {
		fmt.Fprintln(a.stderr, "Error: value to seal required")
		fmt.Fprintln(a.stderr, "Usage: MAILCHIMP_TOKEN_KEY=<key> mailchimp seal <value>")
		return 1
	}
	sealer, err := a.sealer()
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	if sealer == nil {
		fmt.Fprintf(a.stderr, "Error: %s is required to seal tokens\n", EnvTokenKey)
		return 1
	}
	sealed, err := sealer.Seal([]byte(value))
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(a.stdout, sealed)
	return 0
}
