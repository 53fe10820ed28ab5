package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/flowkit/logger"
)

// Introspector fetches the live node-type schemas from the automation engine.
type Introspector interface {
	Introspect(ctx context.Context) ([]Schema, error)
}

//go:embed fallback.yml
var fallbackYAML []byte

// Config configures catalog refresh behavior.
type Config struct {
	// TTL is how long a snapshot is served before a refresh is attempted.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.TTL <= 0 {
		c.TTL = 10 * time.Minute
	}
}

// refreshTimeout bounds a background introspection attempt; the refresh
// runs on a detached context because the triggering caller has already
// been answered.
const refreshTimeout = 30 * time.Second

// snapshot is the immutable unit swapped by copy-on-write.
type snapshot struct {
	schemas  []Schema
	byType   map[string]*Schema
	fallback bool
}

// Catalog serves capability schemas. Reads never block: the current
// snapshot is held behind an atomic pointer and replaced wholesale by a
// background refresh. lastAttempt records when a refresh last finished,
// success or failure, so a down engine is probed at most once per TTL.
type Catalog struct {
	introspector Introspector
	cfg          Config
	log          *logger.Logger

	current     atomic.Pointer[snapshot]
	lastAttempt atomic.Int64
	refreshMu   sync.Mutex
}

// New creates a catalog seeded with the bundled fallback snapshot.
func New(introspector Introspector, cfg Config, log *logger.Logger) (*Catalog, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	fallback, err := loadFallback()
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		introspector: introspector,
		cfg:          cfg,
		log:          log.WithComponent("catalog"),
	}
	c.current.Store(fallback)
	return c, nil
}

// Snapshot returns the current schema set immediately. A lapsed TTL kicks
// off a background refresh; the caller is served whatever snapshot is
// current right now.
func (c *Catalog) Snapshot(_ context.Context) []Schema {
	c.maybeRefresh()
	return c.current.Load().schemas
}

// Lookup returns the schema for a node type from the current snapshot.
func (c *Catalog) Lookup(_ context.Context, nodeType string) (*Schema, bool) {
	c.maybeRefresh()
	s, ok := c.current.Load().byType[nodeType]
	return s, ok
}

// LoopTypes returns the node types declaring loop semantics.
func (c *Catalog) LoopTypes(ctx context.Context) map[string]bool {
	out := make(map[string]bool)
	for _, s := range c.Snapshot(ctx) {
		if s.LoopSemantics {
			out[s.Type] = true
		}
	}
	return out
}

// Alternatives suggests up to limit known node types closest to the unknown
// one, ranked by shared name tokens, then category match. Used to populate
// capability-gap messages.
func (c *Catalog) Alternatives(ctx context.Context, nodeType string, limit int) []string {
	if limit <= 0 {
		limit = 3
	}
	tokens := splitTokens(nodeType)

	type scored struct {
		t     string
		score int
	}
	var candidates []scored
	for _, s := range c.Snapshot(ctx) {
		score := 0
		for _, tok := range splitTokens(s.Type + "." + s.Integration + "." + s.Category) {
			for _, want := range tokens {
				if tok == want {
					score += 2
				} else if strings.HasPrefix(tok, want) || strings.HasPrefix(want, tok) {
					score++
				}
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{t: s.Type, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	out := make([]string, 0, limit)
	for _, cand := range candidates {
		if len(out) == limit {
			break
		}
		out = append(out, cand.t)
	}
	return out
}

// Refresh forces a synchronous introspection attempt regardless of TTL.
// Refresh failure keeps the current snapshot and is reported to the caller.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refresh(ctx)
}

// refresh introspects and swaps the snapshot. The attempt time is recorded
// on failure too, so an unreachable engine is not hammered on every read.
// Callers must hold refreshMu.
func (c *Catalog) refresh(ctx context.Context) error {
	defer c.lastAttempt.Store(time.Now().UnixNano())

	schemas, err := c.introspector.Introspect(ctx)
	if err != nil {
		return fmt.Errorf("catalog: introspection failed: %w", err)
	}
	if len(schemas) == 0 {
		return fmt.Errorf("catalog: introspection returned no schemas")
	}

	c.current.Store(newSnapshot(schemas, false))
	c.log.Info("catalog refreshed", logger.Fields("schemas", len(schemas)))
	return nil
}

// IsFallback reports whether the current snapshot is the bundled one.
func (c *Catalog) IsFallback() bool {
	return c.current.Load().fallback
}

// maybeRefresh starts a background refresh when the TTL has lapsed and no
// refresh is already in flight. It never blocks the calling reader, and
// failure is logged, never surfaced: callers always get a usable snapshot.
func (c *Catalog) maybeRefresh() {
	if c.introspector == nil || !c.expired() {
		return
	}
	if !c.refreshMu.TryLock() {
		// A refresh is already in flight; serve the current snapshot.
		return
	}
	go func() {
		defer c.refreshMu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := c.refresh(ctx); err != nil {
			c.log.Warn("serving cached capability snapshot", logger.ErrorFields("refresh", err))
		}
	}()
}

// expired reports whether the last refresh attempt is older than the TTL.
// A catalog that has never attempted one is expired.
func (c *Catalog) expired() bool {
	return time.Since(time.Unix(0, c.lastAttempt.Load())) >= c.cfg.TTL
}

func newSnapshot(schemas []Schema, fallback bool) *snapshot {
	byType := make(map[string]*Schema, len(schemas))
	for i := range schemas {
		byType[schemas[i].Type] = &schemas[i]
	}
	return &snapshot{
		schemas:  schemas,
		byType:   byType,
		fallback: fallback,
	}
}

func loadFallback() (*snapshot, error) {
	var doc struct {
		Schemas []Schema `yaml:"schemas"`
	}
	if err := yaml.Unmarshal(fallbackYAML, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parsing bundled snapshot: %w", err)
	}
	return newSnapshot(doc.Schemas, true), nil
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == ' '
	})
}
