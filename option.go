package forge

import (
	"github.com/viant/afs"
	"github.com/viant/x"

	"github.com/forgekit/forge/model/namespace"
	"github.com/forgekit/forge/policy"
	"github.com/forgekit/forge/service/discovery"
	"github.com/forgekit/forge/service/event"
	"github.com/forgekit/forge/service/prompt"
	"github.com/forgekit/forge/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the engine service.
type Option func(s *Service)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithFS sets the file system service used for discovery and commits.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithAliases sets the alias rule table.
func WithAliases(aliases *namespace.Aliases) Option {
	return func(s *Service) { s.aliases = aliases }
}

// WithPrompter sets the conflict resolution adapter.
func WithPrompter(prompter prompt.Prompter) Option {
	return func(s *Service) { s.prompter = prompter }
}

// WithPolicy sets the conflict policy.
func WithPolicy(pol *policy.Policy) Option {
	return func(s *Service) { s.policy = pol }
}

// WithEventService sets the event service.
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.eventService = service }
}

// WithDiscovery sets the package discovery service.
func WithDiscovery(service discovery.Service) Option {
	return func(s *Service) { s.discovery = service }
}

// WithExtensionTypes registers typed generator option structs.
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = append(s.extensionTypes, types...)
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
