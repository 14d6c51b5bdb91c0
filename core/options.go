package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
	"github.com/google/uuid"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type clientBuilder struct {
	logger          Logger
	loggerProvider  LoggerProvider
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	activitySink    ActivitySink
	endpoint        *Endpoint
	requirement     *CredentialRequirement
	clock           func() time.Time
	idGenerator     func() string
}

type Option func(*clientBuilder)

func WithLogger(logger Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}

// WithActivitySink records every request outcome in sink.
func WithActivitySink(sink ActivitySink) Option {
	return func(b *clientBuilder) {
		b.activitySink = sink
	}
}

// WithEndpoint overrides the endpoint derived from the datacenter.
func WithEndpoint(endpoint Endpoint) Option {
	return func(b *clientBuilder) {
		b.endpoint = &endpoint
	}
}

func WithCredentialRequirement(req CredentialRequirement) Option {
	return func(b *clientBuilder) {
		b.requirement = &req
	}
}

func WithClock(clock func() time.Time) Option {
	return func(b *clientBuilder) {
		b.clock = clock
	}
}

func WithIDGenerator(generator func() string) Option {
	return func(b *clientBuilder) {
		b.idGenerator = generator
	}
}

func defaultClientBuilder() clientBuilder {
	loggerProvider, logger := glog.Resolve("mailchimp", nil, nil)
	return clientBuilder{
		loggerProvider:  loggerProvider,
		logger:          logger,
		configProvider:  NewCfgxConfigProvider(),
		optionsResolver: GoOptionsResolver{},
		clock:           time.Now,
		idGenerator:     uuid.NewString,
	}
}

func buildOptions(options []Option) clientBuilder {
	builder := defaultClientBuilder()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider()
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = time.Now
	}
	if builder.idGenerator == nil {
		builder.idGenerator = uuid.NewString
	}
	return builder
}

// LoadConfig merges defaults, loaded configuration and runtime values and
// validates the result.
func LoadConfig(ctx context.Context, runtime Config, options ...Option) (Config, error) {
	builder := buildOptions(options)
	return builder.resolveConfig(ctx, runtime)
}

func (b clientBuilder) resolveConfig(ctx context.Context, runtime Config) (Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defaults := DefaultConfig()
	loaded, err := b.configProvider.Load(ctx, defaults)
	if err != nil {
		return Config{}, configError(err)
	}
	resolved, err := b.optionsResolver.Resolve(defaults, loaded, runtime)
	if err != nil {
		return Config{}, configError(err)
	}
	return resolved, nil
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// StaticConfigLoader returns a loader serving a fixed raw map.
func StaticConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

// CfgxConfigProvider merges its loaders in order, later loaders taking
// precedence, and decodes the result with cfgx.
type CfgxConfigProvider struct {
	Loaders []RawConfigLoader
}

func NewCfgxConfigProvider(loaders ...RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loaders: loaders}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil || len(p.Loaders) == 0 {
		return defaults, nil
	}
	merged := map[string]any{}
	for _, loader := range p.Loaders {
		if loader == nil {
			continue
		}
		raw, err := loader.LoadRaw(ctx)
		if err != nil {
			return Config{}, err
		}
		mergeRaw(merged, raw)
	}
	return cfgx.Build[Config](merged, cfgx.WithDefaults(defaults))
}

func mergeRaw(target map[string]any, source map[string]any) {
	for key, value := range source {
		nested, ok := value.(map[string]any)
		if !ok {
			target[key] = value
			continue
		}
		existing, ok := target[key].(map[string]any)
		if !ok {
			existing = map[string]any{}
			target[key] = existing
		}
		mergeRaw(existing, nested)
	}
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			layer[key] = strings.TrimSpace(value)
		}
	}
	setString("service_name", cfg.ServiceName)
	setString("datacenter", strings.ToLower(cfg.Datacenter))
	setString("credential_name", cfg.CredentialName)
	setString("base_domain", cfg.BaseDomain)
	setString("api_version", cfg.APIVersion)
	if includeZero || cfg.TimeoutMS > 0 {
		layer["timeout_ms"] = cfg.TimeoutMS
	}

	history := map[string]any{}
	if includeZero || cfg.History.Enabled {
		history["enabled"] = cfg.History.Enabled
	}
	if includeZero || strings.TrimSpace(cfg.History.Driver) != "" {
		history["driver"] = strings.ToLower(strings.TrimSpace(cfg.History.Driver))
	}
	if includeZero || strings.TrimSpace(cfg.History.DSN) != "" {
		history["dsn"] = strings.TrimSpace(cfg.History.DSN)
	}
	if len(history) > 0 {
		layer["history"] = history
	}
	return layer
}
