package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/ai"
)

// Defaults fill in whatever the stored APISettings leave blank.
type Defaults struct {
	Provider      string
	APIKey        string
	Model         string
	FallbackModel string
}

// MainParams are the sampling parameters of the main model.
type MainParams struct {
	Model string
	ai.Options
}

// Resolver turns the stored settings into a ready gateway for each call site.
type Resolver struct {
	repo     *Repo
	registry *ai.Registry
	def      Defaults
	log      zerolog.Logger
}

func NewResolver(repo *Repo, registry *ai.Registry, def Defaults, log zerolog.Logger) *Resolver {
	return &Resolver{repo: repo, registry: registry, def: def, log: log}
}

// Gateway builds the gateway for the configured provider and returns the main-model
// parameters alongside it. The gateway carries the fallback model; callers that must not
// retry use WithoutFallback.
func (r *Resolver) Gateway(ctx context.Context) (*ai.Gateway, MainParams, error) {
	s, err := r.repo.GetAPISettings(ctx)
	if err != nil {
		return nil, MainParams{}, fmt.Errorf("load api settings: %w", err)
	}
	if s == nil {
		s = &APISettings{}
	}

	provider := firstNonBlank(s.Provider, r.def.Provider, DefaultProvider)
	key := firstNonBlank(s.APIKey, r.def.APIKey)
	p, err := r.registry.Get(ctx, provider, key)
	if err != nil {
		r.log.Warn().Err(err).Str("provider", provider).Msg("provider lookup failed")
		if ai.IsConfigurationError(err) {
			return nil, MainParams{}, err
		}
		return nil, MainParams{}, &ai.ConfigurationError{Msg: fmt.Sprintf("Unknown AI provider %q. Check the provider in settings.", provider)}
	}

	params := MainParams{
		Model:   firstNonBlank(s.ModelName, r.def.Model),
		Options: ai.Options{Temperature: s.Temperature, MaxTokens: s.MaxTokens},
	}
	return ai.NewGateway(p, r.def.FallbackModel, r.log), params, nil
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
