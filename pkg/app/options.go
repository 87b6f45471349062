package app

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-glimmer/pkg/dom"
	"github.com/goliatone/go-glimmer/pkg/environment"
	"github.com/goliatone/go-glimmer/pkg/owner"
)

// DefaultRootName is the component rendered at the top of the tree.
const DefaultRootName = "Main"

// DefaultRootTag is the wrapper element the root component renders into.
const DefaultRootTag = "div"

// Option configures a Builder.
type Option func(*config)

type config struct {
	env      *environment.Environment
	document *dom.Document
	rootName string
	rootTag  string
	owner    owner.Owner
	logger   *zap.Logger
	policy   *bluemonday.Policy
}

// WithEnvironment renders into an existing environment. Its owner is used
// unless WithOwner is also given.
func WithEnvironment(env *environment.Environment) Option {
	return func(cfg *config) {
		cfg.env = env
	}
}

// WithDocument renders into doc using the default tree construction.
// Ignored when WithEnvironment is set.
func WithDocument(doc *dom.Document) Option {
	return func(cfg *config) {
		cfg.document = doc
	}
}

// WithRootName changes the root component (default "Main").
func WithRootName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.rootName = trimmed
		}
	}
}

// WithRootTag changes the wrapper element tag (default "div").
func WithRootTag(tag string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			cfg.rootTag = trimmed
		}
	}
}

// WithOwner sets the owner components are created with.
func WithOwner(o owner.Owner) Option {
	return func(cfg *config) {
		cfg.owner = o
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithHTMLPolicy overrides the sanitizer applied to trusted markup.
func WithHTMLPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		cfg.policy = policy
	}
}
