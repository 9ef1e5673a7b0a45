// Package pipeline is the service side of generation: it gates and builds
// the request, calls the model with its own retry budget and turns the
// answer into a validated, brand-free payload.
package pipeline

import (
	"context"
	"time"

	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/raine/wardrobe-editorial/internal/llm"
	"github.com/raine/wardrobe-editorial/internal/mapping"
	"github.com/raine/wardrobe-editorial/internal/metrics"
	"github.com/raine/wardrobe-editorial/internal/retry"
	"github.com/raine/wardrobe-editorial/internal/wardrobe"
	"github.com/rs/zerolog"
)

// ImageResolver turns image references into inline images.
type ImageResolver interface {
	Resolve(ctx context.Context, refs []editorial.ImageRef) ([]llm.Image, error)
}

// Service runs one submission end to end. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	generator  llm.Generator
	resolver   ImageResolver
	normalizer *wardrobe.Normalizer
	sanitizer  *wardrobe.Sanitizer
	gate       wardrobe.Gate
	retry      retry.Policy
	metrics    *metrics.Registry
}

// Option configures a Service.
type Option func(*Service)

// WithResolver sets how image references are fetched.
func WithResolver(r ImageResolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithTables replaces the built-in mapping tables.
func WithTables(set *mapping.Set) Option {
	return func(s *Service) {
		s.normalizer = wardrobe.NewNormalizer(set)
		s.sanitizer = wardrobe.NewSanitizer(set)
	}
}

// WithGate sets the minimum-content thresholds.
func WithGate(g wardrobe.Gate) Option {
	return func(s *Service) { s.gate = g }
}

// WithRetryDelay sets the pause before the internal retry.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) { s.retry.Delay = d }
}

// WithRetryPolicy replaces the internal retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Service) { s.retry = p }
}

// WithMetrics records outcomes and model attempts.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Service) { s.metrics = r }
}

// New creates a Service around a generation capability.
func New(generator llm.Generator, opts ...Option) *Service {
	s := &Service{
		generator:  generator,
		resolver:   llm.NewResolver(nil),
		normalizer: wardrobe.NewNormalizer(nil),
		sanitizer:  wardrobe.NewSanitizer(nil),
		gate:       wardrobe.DefaultGate(),
		retry:      retry.Default("model"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs req through the pipeline. Every failure is a classified
// *editorial.Error.
func (s *Service) Generate(ctx context.Context, req editorial.Request) (editorial.Payload, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx)

	payload, err := s.generate(ctx, req)
	if err != nil {
		e := editorial.AsError(err)
		s.metrics.Outcome(ctx, string(e.Kind))
		logger.Warn().
			Err(err).
			Str("kind", string(e.Kind)).
			Str("variant", string(req.Variant)).
			Dur("duration", time.Since(start)).
			Msg("generation failed")
		return nil, e
	}

	s.metrics.Outcome(ctx, "ok")
	logger.Info().
		Str("variant", string(req.Variant)).
		Int("keys", len(payload)).
		Dur("duration", time.Since(start)).
		Msg("generation succeeded")
	return payload, nil
}

// Run is Generate expressed as an Outcome.
func (s *Service) Run(ctx context.Context, req editorial.Request) editorial.Outcome {
	return editorial.OutcomeOf(s.Generate(ctx, req))
}

func (s *Service) generate(ctx context.Context, req editorial.Request) (editorial.Payload, error) {
	req = req.Clean()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var items []string
	if req.Variant.UsesItems() {
		normalized := s.normalizer.Normalize(req.Items)
		if len(normalized.Notes) > 0 {
			zerolog.Ctx(ctx).Debug().Strs("notes", normalized.Notes).Msg("wardrobe items dropped")
		}
		if err := s.gate.Check(req.Items, normalized); err != nil {
			return nil, err
		}
		items = normalized.Normalized
	}

	prompt, err := editorial.Build(req, items)
	if err != nil {
		return nil, err
	}

	var images []llm.Image
	if refs := req.ImageRefs(); len(refs) > 0 {
		images, err = s.resolver.Resolve(ctx, refs)
		if err != nil {
			return nil, err
		}
	}

	in := llm.Input{Prompt: prompt, Images: images}
	required := prompt.Variant.RequiredKeys()

	var result editorial.Payload
	err = s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		p, err := s.attempt(ctx, in, required)
		if err != nil {
			s.metrics.ModelAttempt(ctx, string(editorial.KindOf(err)))
			return err
		}
		s.metrics.ModelAttempt(ctx, "ok")
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return editorial.Payload(s.sanitizer.SanitizePayload(result)), nil
}

// attempt is one model call plus the steps that can make it worth retrying.
func (s *Service) attempt(ctx context.Context, in llm.Input, required []string) (editorial.Payload, error) {
	raw, err := s.generator.Generate(ctx, in)
	if err != nil {
		return nil, editorial.AsError(err)
	}
	candidate, err := editorial.Extract(editorial.NormalizeResponse(raw))
	if err != nil {
		return nil, err
	}
	if err := editorial.PolicyRejection(candidate); err != nil {
		return nil, err
	}
	return editorial.ValidateStructure(candidate, required)
}
