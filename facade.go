package mailchimp

import (
	"fmt"
	"slices"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-mailchimp/adapters/gocommand"
	mccommand "github.com/goliatone/go-mailchimp/command"
	"github.com/goliatone/go-mailchimp/core"
	mcquery "github.com/goliatone/go-mailchimp/query"
)

type Commands struct {
	AddMember     *mccommand.AddMemberCommand
	PruneActivity *mccommand.PruneActivityCommand
}

type Queries struct {
	GetMember      *mcquery.GetMemberQuery
	CampaignReport *mcquery.CampaignReportQuery
	ListActivity   *mcquery.ListActivityQuery
}

type Facade struct {
	client   *core.Client
	commands Commands
	queries  Queries

	mu           sync.Mutex
	messageTypes []string
}

// catalogResolver is the registry resolver key under which the facade records
// the message types it serves.
const catalogResolver = "mailchimp.catalog"

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	activityReader core.ActivityReader
	activityPruner core.ActivityPruner
}

func WithActivityReader(reader core.ActivityReader) FacadeOption {
	return func(options *facadeOptions) {
		options.activityReader = reader
	}
}

func WithActivityPruner(pruner core.ActivityPruner) FacadeOption {
	return func(options *facadeOptions) {
		options.activityPruner = pruner
	}
}

// WithActivityStore wires whichever of the reader and pruner contracts
// store satisfies.
func WithActivityStore(store any) FacadeOption {
	return func(options *facadeOptions) {
		if reader, ok := store.(core.ActivityReader); ok {
			options.activityReader = reader
		}
		if pruner, ok := store.(core.ActivityPruner); ok {
			options.activityPruner = pruner
		}
	}
}

func NewFacade(client *core.Client, opts ...FacadeOption) (*Facade, error) {
	if client == nil {
		return nil, fmt.Errorf("mailchimp: client is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	facade := &Facade{client: client}
	facade.commands = Commands{
		AddMember:     mccommand.NewAddMemberCommand(client),
		PruneActivity: mccommand.NewPruneActivityCommand(cfg.activityPruner),
	}
	facade.queries = Queries{
		GetMember:      mcquery.NewGetMemberQuery(client),
		CampaignReport: mcquery.NewCampaignReportQuery(client),
		ListActivity:   mcquery.NewListActivityQuery(cfg.activityReader),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Client() *core.Client {
	if f == nil {
		return nil
	}
	return f.client
}

// Subscribe registers every handler with the registry and the global
// dispatcher, then initializes the registry. Initialization records the
// served message types, see MessageTypes. On error the subscriptions made so
// far are released.
func (f *Facade) Subscribe(adapter *gocommand.RegistryAdapter, runnerOpts ...runner.Option) ([]commanddispatcher.Subscription, error) {
	if f == nil {
		return nil, fmt.Errorf("mailchimp: facade is required")
	}
	if adapter == nil {
		adapter = gocommand.NewRegistryAdapter(nil)
	}
	if !adapter.HasResolver(catalogResolver) {
		if err := adapter.AddResolver(catalogResolver, f.recordMessageType); err != nil {
			return nil, err
		}
	}

	var subs []commanddispatcher.Subscription
	release := func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}
	steps := []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe[mccommand.AddMemberMessage](adapter, f.commands.AddMember, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe[mccommand.PruneActivityMessage](adapter, f.commands.PruneActivity, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[mcquery.GetMemberMessage, core.Object](adapter, f.queries.GetMember, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[mcquery.CampaignReportMessage, core.ReportBundle](adapter, f.queries.CampaignReport, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[mcquery.ListActivityMessage, core.ActivityPage](adapter, f.queries.ListActivity, runnerOpts...)
		},
	}
	for _, step := range steps {
		sub, err := step()
		if err != nil {
			release()
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := adapter.Initialize(); err != nil {
		release()
		return nil, err
	}
	return subs, nil
}

// MessageTypes lists the message types registered by Subscribe, sorted.
func (f *Facade) MessageTypes() []string {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.messageTypes)
	slices.Sort(out)
	return out
}

func (f *Facade) recordMessageType(_ any, meta command.CommandMeta, _ *command.Registry) error {
	if meta.MessageType == "" {
		return fmt.Errorf("mailchimp: handler has no message type")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Contains(f.messageTypes, meta.MessageType) {
		f.messageTypes = append(f.messageTypes, meta.MessageType)
	}
	return nil
}
