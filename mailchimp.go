package mailchimp

import (
	"strings"

	"github.com/goliatone/go-mailchimp/core"
	"github.com/goliatone/go-mailchimp/security"
	"github.com/goliatone/go-mailchimp/transport"
)

type Config = core.Config

type HistoryConfig = core.HistoryConfig

type Client = core.Client

type Option = core.Option

type Object = core.Object

type Result = core.Result

type RequestError = core.RequestError

type ConfigurationError = core.ConfigurationError

type CredentialBroker = core.CredentialBroker

type PageOptions = core.PageOptions
type MemberListOptions = core.MemberListOptions
type CampaignListOptions = core.CampaignListOptions
type NewMember = core.NewMember
type ReportDetails = core.ReportDetails
type ReportBundle = core.ReportBundle
type CampaignBundle = core.CampaignBundle

var (
	WithLogger                = core.WithLogger
	WithLoggerProvider        = core.WithLoggerProvider
	WithConfigProvider        = core.WithConfigProvider
	WithOptionsResolver       = core.WithOptionsResolver
	WithActivitySink          = core.WithActivitySink
	WithEndpoint              = core.WithEndpoint
	WithCredentialRequirement = core.WithCredentialRequirement
	IdentityKey               = core.IdentityKey
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// Options configures New. A nil Broker is replaced by a transport.Broker
// over the token store found at PermissionsPath and TokensPath.
type Options struct {
	Config          Config
	PermissionsPath string
	TokensPath      string
	Sealer          *security.Sealer
	Broker          CredentialBroker
	BrokerOptions   []transport.BrokerOption
	ClientOptions   []Option
}

// New builds a client together with the host-side broker it talks through.
func New(opts Options) (*Client, error) {
	broker := opts.Broker
	if broker == nil {
		built, err := NewBroker(opts.PermissionsPath, opts.TokensPath, opts.Sealer, opts.BrokerOptions...)
		if err != nil {
			return nil, err
		}
		broker = built
	}
	return core.NewClient(opts.Config, broker, opts.ClientOptions...)
}

// NewBroker loads the token store and wraps it in a transport.Broker. Empty
// paths fall back to security.DefaultPaths.
func NewBroker(permissionsPath string, tokensPath string, sealer *security.Sealer, opts ...transport.BrokerOption) (*transport.Broker, error) {
	defaultPermissions, defaultTokens := security.DefaultPaths()
	if strings.TrimSpace(permissionsPath) == "" {
		permissionsPath = defaultPermissions
	}
	if strings.TrimSpace(tokensPath) == "" {
		tokensPath = defaultTokens
	}
	var storeOpts []security.StoreOption
	if sealer != nil {
		storeOpts = append(storeOpts, security.WithSealer(sealer))
	}
	tokens, err := security.LoadTokenStore(permissionsPath, tokensPath, storeOpts...)
	if err != nil {
		return nil, err
	}
	return transport.NewBroker(tokens, opts...), nil
}
