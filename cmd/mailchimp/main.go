// Command mailchimp is a Mailchimp Marketing API client. The API key is
// never read by the client itself: the host token store injects it into
// each request according to ~/.pave/permissions.yaml.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	mailchimp "github.com/goliatone/go-mailchimp"
	"github.com/goliatone/go-mailchimp/adapters/gologger"
	"github.com/goliatone/go-mailchimp/core"
	"github.com/goliatone/go-mailchimp/security"
	"github.com/goliatone/go-mailchimp/transport"
	"github.com/spf13/pflag"
)

const EnvTokenKey = "MAILCHIMP_TOKEN_KEY"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := newApp(os.Stdout, os.Stderr).run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

type options struct {
	datacenter  string
	json        bool
	summary     bool
	count       int
	offset      int
	status      string
	kind        string
	since       string
	before      string
	content     bool
	clicks      bool
	opens       bool
	fname       string
	lname       string
	tags        string
	configPath  string
	permissions string
	tokens      string
	historyDB   string
	operation   string
	outcome     string
	prune       bool
	ttl         time.Duration
	keep        int
	verbose     bool
	help        bool
}

// app holds the process collaborators so tests can swap the broker and
// the endpoint.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	newBroker func(opts options, logger core.Logger) (core.CredentialBroker, error)
	clientOps []core.Option
}

func newApp(stdout io.Writer, stderr io.Writer) *app {
	a := &app{stdout: stdout, stderr: stderr, lookupEnv: os.LookupEnv}
	a.newBroker = a.defaultBroker
	return a
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("mailchimp", pflag.ContinueOnError)
	flagSet.SortFlags = false
	flagSet.StringVar(&opts.datacenter, "dc", "", "Mailchimp datacenter, e.g. us21")
	flagSet.BoolVar(&opts.json, "json", false, "raw JSON output (default)")
	flagSet.BoolVar(&opts.summary, "summary", false, "human readable summary")
	flagSet.IntVarP(&opts.count, "count", "n", 10, "number of records to return")
	flagSet.IntVar(&opts.offset, "offset", 0, "number of records to skip")
	flagSet.StringVarP(&opts.status, "status", "s", "", "status filter, or member status for add-member")
	flagSet.StringVarP(&opts.kind, "type", "t", "", "campaign type filter")
	flagSet.StringVar(&opts.since, "since", "", "created or opted in after (ISO 8601)")
	flagSet.StringVar(&opts.before, "before", "", "created before (ISO 8601)")
	flagSet.BoolVar(&opts.content, "content", false, "include campaign HTML content")
	flagSet.BoolVar(&opts.clicks, "clicks", false, "include report click details")
	flagSet.BoolVar(&opts.opens, "opens", false, "include report open details")
	flagSet.StringVar(&opts.fname, "fname", "", "member first name")
	flagSet.StringVar(&opts.lname, "lname", "", "member last name")
	flagSet.StringVar(&opts.tags, "tags", "", "member tags, comma separated")
	flagSet.StringVar(&opts.configPath, "config", "", "YAML config file")
	flagSet.StringVar(&opts.permissions, "permissions", "", "token declarations file (default ~/.pave/permissions.yaml)")
	flagSet.StringVar(&opts.tokens, "tokens", "", "token values file (default ~/.pave/tokens.yaml)")
	flagSet.StringVar(&opts.historyDB, "history-db", "", "record request history in this SQLite file")
	flagSet.StringVar(&opts.operation, "operation", "", "history: filter by operation")
	flagSet.StringVar(&opts.outcome, "outcome", "", "history: filter by outcome (success, failure)")
	flagSet.BoolVar(&opts.prune, "prune", false, "history: delete old entries instead of listing")
	flagSet.DurationVar(&opts.ttl, "ttl", 0, "history prune: delete entries older than this")
	flagSet.IntVar(&opts.keep, "keep", 0, "history prune: keep at most this many entries")
	flagSet.BoolVar(&opts.verbose, "verbose", false, "debug logging on stderr")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	return flagSet
}

func (a *app) run(ctx context.Context, args []string) int {
	var opts options
	flagSet := newFlagSet(&opts)
	flagSet.SetOutput(a.stderr)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			a.printHelp()
			return 0
		}
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}

	positional := flagSet.Args()
	if len(positional) == 0 || positional[0] == "help" || opts.help {
		a.printHelp()
		return 0
	}
	command, rest := positional[0], positional[1:]

	// stderr carries the error payload, so logs stay off unless asked for.
	level := "off"
	if opts.verbose {
		level = "debug"
	}
	provider := gologger.NewConsoleProvider(a.stderr, level)
	logger := provider.GetLogger("mailchimp.cli")

	switch command {
	case "seal":
		return a.runSeal(rest)
	case "history":
		return a.runHistory(ctx, opts, provider)
	}

	handler, ok := apiCommands[command]
	if !ok {
		fmt.Fprintf(a.stderr, "Error: Unknown command '%s'\n\nRun: mailchimp help\n", command)
		return 1
	}

	session, err := a.openSession(ctx, opts, provider, logger)
	if err != nil {
		return a.fail(opts, err)
	}
	defer session.close()

	if err := handler(ctx, session, opts, rest); err != nil {
		return a.fail(opts, err)
	}
	return 0
}

// fail reports err on stderr and returns the exit code.
func (a *app) fail(opts options, err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(a.stderr, "Error: %s\n", usage.message)
		if usage.hint != "" {
			fmt.Fprintln(a.stderr, usage.hint)
		}
		return 1
	}
	var cfgErr *core.ConfigurationError
	if errors.As(err, &cfgErr) {
		fmt.Fprint(a.stderr, cfgErr.Remediation())
		return 1
	}
	writeError(a.stderr, err, opts.summary)
	return 1
}

type usageError struct {
	message string
	hint    string
}

func (e *usageError) Error() string {
	return e.message
}

func usage(message string, hint string) error {
	return &usageError{message: message, hint: hint}
}

func (a *app) defaultBroker(opts options, logger core.Logger) (core.CredentialBroker, error) {
	sealer, err := a.sealer()
	if err != nil {
		return nil, err
	}
	return mailchimp.NewBroker(opts.permissions, opts.tokens, sealer, transport.WithBrokerLogger(logger))
}

// sealer returns nil when no host key is configured.
func (a *app) sealer() (*security.Sealer, error) {
	key, ok := a.lookupEnv(EnvTokenKey)
	if !ok || strings.TrimSpace(key) == "" {
		return nil, nil
	}
	return security.NewSealer([]byte(key))
}

func (a *app) configProvider(opts options) core.ConfigProvider {
	return core.NewCfgxConfigProvider(
		core.YAMLFileLoader{Path: opts.configPath, Required: strings.TrimSpace(opts.configPath) != ""},
		core.EnvConfigLoader{Lookup: a.lookupEnv},
	)
}

func runtimeConfig(opts options) core.Config {
	cfg := core.Config{Datacenter: strings.ToLower(strings.TrimSpace(opts.datacenter))}
	if dsn := strings.TrimSpace(opts.historyDB); dsn != "" {
		cfg.History = core.HistoryConfig{Enabled: true, Driver: core.HistoryDriverSQLite, DSN: dsn}
	}
	return cfg
}

func (a *app) printHelp() {
	fmt.Fprint(a.stdout, helpText)
}

const helpText = `
Mailchimp CLI - secure token version

USAGE:
  mailchimp <command> [options]

COMMANDS:
  ping                           Verify API key and get account info
  lists                          List all audiences/lists
  list <listId>                  Get a specific list/audience details
  members <listId>               List members/subscribers of a list
  member <listId> <email>        Get a specific member by email
  add-member <listId> <email>    Add a new member to a list
  search <query>                 Search members across all lists
  campaigns                      List campaigns
  campaign <campaignId>          Get a specific campaign
  report <campaignId>            Get campaign report/analytics
  tags <listId>                  List tags for a list
  automations                    List all automations
  history                        Show or prune recorded request history
  seal <value>                   Seal a token value with MAILCHIMP_TOKEN_KEY

OPTIONS:
  --dc <datacenter>              Mailchimp datacenter (e.g., us21) [required]
  --json                         Raw JSON output (default)
  --summary                      Human-readable summary
  --config <file>                YAML config file
  --permissions <file>           Token declarations (default ~/.pave/permissions.yaml)
  --tokens <file>                Token values (default ~/.pave/tokens.yaml)
  --history-db <file>            Record request history in a SQLite file
  --verbose                      Debug logging on stderr

LIST/MEMBER OPTIONS:
  -n, --count <number>           Number of records to return (default: 10)
  --offset <number>              Number of records to skip (default: 0)
  -s, --status <status>          Filter by status

MEMBER STATUS VALUES:
  subscribed, unsubscribed, cleaned, pending, transactional

CAMPAIGN OPTIONS:
  -s, --status <status>          Filter by status: save, paused, schedule, sending, sent
  -t, --type <type>              Filter by type: regular, plaintext, absplit, rss, variate
  --since <date>                 Filter by create date (ISO 8601)
  --before <date>                Filter by create date (ISO 8601)
  --content                      Include campaign content (HTML)

ADD-MEMBER OPTIONS:
  -s, --status <status>          Status: subscribed, unsubscribed, pending (default: subscribed)
  --fname <name>                 First name
  --lname <name>                 Last name
  --tags <tags>                  Tags (comma-separated)

REPORT OPTIONS:
  --clicks                       Include click details
  --opens                        Include open details

HISTORY OPTIONS:
  --operation <name>             Filter by operation (e.g., members.get)
  --outcome <outcome>            Filter by outcome: success, failure
  --prune                        Delete old entries instead of listing
  --ttl <duration>               Prune entries older than this (e.g., 720h)
  --keep <number>                Prune down to this many entries

EXAMPLES:
  mailchimp ping --dc us21 --summary
  mailchimp members b4cd77f0a4 --dc us21 --count 20 --status subscribed
  mailchimp member b4cd77f0a4 user@example.com --dc us21 --summary
  mailchimp add-member b4cd77f0a4 new@example.com --dc us21 --fname John --lname Doe
  mailchimp report abc123 --dc us21 --clicks --opens --summary
  mailchimp history --history-db ~/.pave/mailchimp.db --outcome failure --summary

TOKEN SETUP:
  Declare the mailchimp token in ~/.pave/permissions.yaml and put the API
  key in MAILCHIMP_API_KEY or ~/.pave/tokens.yaml.
  API key format: key-datacenter (e.g., abc123def456-us21)
`
