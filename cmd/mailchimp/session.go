package main

import (
	"context"
	"io"
	"strings"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	glog "github.com/goliatone/go-logger/glog"
	mailchimp "github.com/goliatone/go-mailchimp"
	"github.com/goliatone/go-mailchimp/adapters/gocommand"
	"github.com/goliatone/go-mailchimp/core"
	sqlstore "github.com/goliatone/go-mailchimp/store/sql"
)

const datacenterHint = `
The datacenter is the last part of your API key (after the hyphen).
Example: If your API key is "abc123-us21", use --dc us21`

// session is one CLI invocation against the API: client, optional history
// store and the go-command subscriptions of the facade.
type session struct {
	out    io.Writer
	client *core.Client
	store  *sqlstore.Store
	subs   []commanddispatcher.Subscription
}

func (a *app) openSession(ctx context.Context, opts options, provider glog.LoggerProvider, logger core.Logger) (*session, error) {
	cfgProvider := a.configProvider(opts)
	runtime := runtimeConfig(opts)
	if runtime.Datacenter == "" {
		loaded, err := cfgProvider.Load(ctx, core.DefaultConfig())
		if err == nil && strings.TrimSpace(loaded.Datacenter) == "" {
			return nil, usage("--dc <datacenter> is required (e.g., --dc us21)", datacenterHint)
		}
	}

	cfg, err := core.LoadConfig(ctx, runtime, core.WithConfigProvider(cfgProvider))
	if err != nil {
		return nil, err
	}

	s := &session{out: a.stdout}
	clientOpts := []core.Option{
		core.WithConfigProvider(cfgProvider),
		core.WithLoggerProvider(provider),
	}
	if cfg.History.Enabled {
		store, err := sqlstore.Open(ctx, cfg.History)
		if err != nil {
			return nil, err
		}
		s.store = store
		clientOpts = append(clientOpts, core.WithActivitySink(store.Activity()))
	}
	clientOpts = append(clientOpts, a.clientOps...)

	broker, err := a.newBroker(opts, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	client, err := core.NewClient(cfg, broker, clientOpts...)
	if err != nil {
		s.close()
		return nil, err
	}
	s.client = client

	var facadeOpts []mailchimp.FacadeOption
	if s.store != nil {
		facadeOpts = append(facadeOpts, mailchimp.WithActivityStore(s.store.Activity()))
	}
	facade, err := mailchimp.NewFacade(client, facadeOpts...)
	if err != nil {
		s.close()
		return nil, err
	}
	subs, err := facade.Subscribe(gocommand.NewRegistryAdapter(nil), dispatchOptions(provider)...)
	if err != nil {
		s.close()
		return nil, err
	}
	s.subs = subs
	return s, nil
}

// dispatchOptions keeps go-command handler failures on the CLI logger; the
// error itself is reported by fail.
func dispatchOptions(provider glog.LoggerProvider) []runner.Option {
	return gocommand.RunnerOptions(provider.GetLogger("mailchimp.dispatch"))
}

func (s *session) close() {
	if s == nil {
		return
	}
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	if s.store != nil {
		_ = s.store.Close()
		s.store = nil
	}
}
