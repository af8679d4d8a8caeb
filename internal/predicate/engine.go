package predicate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"floatsync/internal/config"
	"floatsync/internal/floatplane"
	"floatsync/internal/services"
)

// Rule is a compiled predicate.
type Rule struct {
	root Node
}

// Eval reports whether the rule holds for post and attachment. attachment is
// nil when no detail was fetched.
func (r *Rule) Eval(post floatplane.Post, attachment *floatplane.Attachment) bool {
	return eval(r.root, &Input{Post: post, Attachment: attachment}).b
}

// String is the canonical form of the rule.
func (r *Rule) String() string { return r.root.String() }

// Engine compiles rules and caches them for its own lifetime. Rules are keyed
// by their source text and by their canonical form, so spelling variants of
// one rule share a compiled tree.
type Engine struct {
	mu          sync.Mutex
	byText      map[string]*Rule
	byCanonical map[string]*Rule
}

// NewEngine returns an engine with an empty rule cache.
func NewEngine() *Engine {
	return &Engine{
		byText:      make(map[string]*Rule),
		byCanonical: make(map[string]*Rule),
	}
}

// Compile parses src, reusing a cached rule when one exists.
func (e *Engine) Compile(src string) (*Rule, error) {
	text := strings.TrimSpace(src)

	e.mu.Lock()
	if rule, ok := e.byText[text]; ok {
		e.mu.Unlock()
		return rule, nil
	}
	e.mu.Unlock()

	root, err := Parse(text)
	if err != nil {
		return nil, err
	}
	canonical := root.String()

	e.mu.Lock()
	defer e.mu.Unlock()
	rule, ok := e.byCanonical[canonical]
	if !ok {
		rule = &Rule{root: root}
		e.byCanonical[canonical] = rule
	}
	e.byText[text] = rule
	return rule, nil
}

// Len reports how many distinct rules are cached.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.byCanonical)
}

// Matches evaluates channel's predicate. A channel without a predicate never
// matches. Compile failures are configuration errors.
func (e *Engine) Matches(channel config.Channel, post floatplane.Post, attachment *floatplane.Attachment) (bool, error) {
	if strings.TrimSpace(channel.Predicate) == "" {
		return false, nil
	}
	rule, err := e.Compile(channel.Predicate)
	if err != nil {
		return false, services.Wrap(services.ErrConfiguration, "predicate", "compile",
			fmt.Sprintf("channel %q", channel.Title), err)
	}
	return rule.Eval(post, attachment), nil
}

// Decision is the outcome of classifying one attachment.
type Decision struct {
	// Matched is true when some channel's predicate held.
	Matched bool
	// Skip is true when the matching channel consumes the attachment without output.
	Skip bool
	// Index is the position of the matching channel, or -1.
	Index   int
	Channel config.Channel
}

// Classify returns the first channel whose predicate holds. Channels are
// tried in order and evaluation stops at the first match, skip channels
// included.
func (e *Engine) Classify(channels []config.Channel, post floatplane.Post, attachment *floatplane.Attachment) (Decision, error) {
	for i, channel := range channels {
		ok, err := e.Matches(channel, post, attachment)
		if err != nil {
			return Decision{Index: -1}, err
		}
		if !ok {
			continue
		}
		return Decision{Matched: true, Skip: channel.Skip, Index: i, Channel: channel}, nil
	}
	return Decision{Index: -1}, nil
}

// Validate compiles every channel predicate of subs and reports all failures.
func (e *Engine) Validate(subs []config.Subscription) error {
	var errs []error
	for _, sub := range subs {
		for _, channel := range sub.Channels {
			if strings.TrimSpace(channel.Predicate) == "" {
				continue
			}
			if _, err := e.Compile(channel.Predicate); err != nil {
				errs = append(errs, fmt.Errorf("subscription %s channel %q: %w", sub.CreatorID, channel.Title, err))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "predicate", "validate", "invalid channel predicates", errors.Join(errs...))
}
