// internal/config/loader.go
//
// Configuration loader and cache.
//
/*
Context
--------
A `Loader` is built once at process start and passed to whatever needs
configuration.  `Get()` runs the full pipeline on first use and caches the
result:

 1. Probe every source, highest precedence first:
    secrets dir → process environment → `.env` → `config.yaml` → defaults.
 2. Merge the trees (see merge.go).
 3. Validate against the Schema (see validator.go).
 4. Decode the typed `*Config` into the caller's own type `T`.

The cached result sits in an `atomic.Pointer` for lock-free reads; the
first access is collapsed with singleflight so racing callers share one
load.  `Invalidate()` drops the cache and `Reload()` forces a fresh load.

Instrumentation
---------------
  • DEBUG spans: root and source locations.
  • WARN  span:  unparsable `config.yaml` ignored (lenient mode).
  • ERROR spans: source, validation, and decode failures.
  • INFO  spans: the source report (once per load) and "config loaded".
  • Logs go to the injected *sugared* logger, or `zap.S()` when none was
    given, so early boot issues surface on the bootstrap console.

Notes
-----
  • Source records are rebuilt on every load, failed loads included.
  • A malformed `config.yaml` is treated as absent unless
    `WithStrictFile(true)`.  Every other malformed source is fatal.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/confstack/internal/metrics"
)

/*──────────────────────────────── options ──────────────────────────────────*/

// Option configures a Loader.
type Option func(*options)

type options struct {
	root       string
	file       string
	dotenv     string
	secretsDir string
	strictFile bool
	log        *zap.SugaredLogger
}

// WithRoot sets the project root instead of discovering it.
func WithRoot(dir string) Option { return func(o *options) { o.root = dir } }

// WithFile sets the structured file.  Relative paths resolve against root.
func WithFile(path string) Option { return func(o *options) { o.file = path } }

// WithDotenv sets the dotenv file.  Relative paths resolve against root.
func WithDotenv(path string) Option { return func(o *options) { o.dotenv = path } }

// WithSecretsDir sets the secrets directory.
func WithSecretsDir(dir string) Option { return func(o *options) { o.secretsDir = dir } }

// WithStrictFile makes an unparsable structured file fail the load.
func WithStrictFile(strict bool) Option { return func(o *options) { o.strictFile = strict } }

// WithLogger sets the logger; zap.S() is used otherwise.
func WithLogger(l *zap.SugaredLogger) Option { return func(o *options) { o.log = l } }

/*──────────────────────────────── loader ───────────────────────────────────*/

// Loader owns the cached configuration for one Schema.
type Loader[T any] struct {
	schema *Schema
	decode func(*Config) (T, error)
	opts   options

	cur atomic.Pointer[loaded[T]]
	gen atomic.Uint64 // bumped by Invalidate
	sfg singleflight.Group

	mu      sync.Mutex
	sources []SourceRecord
}

type loaded[T any] struct {
	cfg *Config
	val T
}

// NewLoader resolves file locations but reads nothing.  decode turns the
// validated *Config into T; use Identity when *Config is all you need.
func NewLoader[T any](s *Schema, decode func(*Config) (T, error), opts ...Option) *Loader[T] {
	o := options{secretsDir: DefaultSecretsDir}
	for _, fn := range opts {
		fn(&o)
	}
	if o.root == "" {
		o.root = ResolveRoot()
	}
	if abs, err := filepath.Abs(o.root); err == nil {
		o.root = abs
	}
	o.file = anchor(o.root, o.file, DefaultFile)
	o.dotenv = anchor(o.root, o.dotenv, DefaultDotenv)
	return &Loader[T]{schema: s, decode: decode, opts: o}
}

// Identity is the decode func for Loader[*Config].
func Identity(c *Config) (*Config, error) { return c, nil }

func anchor(root, p, def string) string {
	if p == "" {
		p = def
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return p
}

// Get returns the cached value, loading it on first use.  Repeated calls
// return the identical value until Invalidate.
func (l *Loader[T]) Get() (T, error) {
	c, err := l.get()
	if err != nil {
		var zero T
		return zero, err
	}
	return c.val, nil
}

// Config returns the cached *Config behind Get.
func (l *Loader[T]) Config() (*Config, error) {
	c, err := l.get()
	if err != nil {
		return nil, err
	}
	return c.cfg, nil
}

// Invalidate drops the cache; the next Get loads again.  A load already in
// flight still answers its callers but is not cached.
func (l *Loader[T]) Invalidate() {
	l.gen.Add(1)
	l.sfg.Forget("load")
	l.cur.Store(nil)
}

// keep caches c unless Invalidate ran since gen was read.
func (l *Loader[T]) keep(c *loaded[T], gen uint64) {
	if l.gen.Load() == gen {
		l.cur.Store(c)
	}
}

// Reload loads now and replaces the cache on success.  On failure the
// previous value, if any, stays cached.
func (l *Loader[T]) Reload() (T, error) {
	v, err, _ := l.sfg.Do("reload", func() (interface{}, error) {
		gen := l.gen.Load()
		c, err := l.load()
		if err != nil {
			return nil, err
		}
		l.keep(c, gen)
		return c, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(*loaded[T]).val, nil
}

// Sources returns the records of the most recent load attempt, highest
// precedence first.
func (l *Loader[T]) Sources() []SourceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SourceRecord(nil), l.sources...)
}

// Root returns the resolved project root.
func (l *Loader[T]) Root() string { return l.opts.root }

// Locations returns the resolved file, dotenv, and secrets paths.
func (l *Loader[T]) Locations() (file, dotenv, secretsDir string) {
	return l.opts.file, l.opts.dotenv, l.opts.secretsDir
}

func (l *Loader[T]) get() (*loaded[T], error) {
	if c := l.cur.Load(); c != nil {
		metrics.ConfigCacheHitsTotal.Inc()
		return c, nil
	}
	v, err, _ := l.sfg.Do("load", func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if c := l.cur.Load(); c != nil {
			return c, nil
		}
		gen := l.gen.Load()
		c, err := l.load()
		if err != nil {
			return nil, err
		}
		l.keep(c, gen)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*loaded[T]), nil
}

func (l *Loader[T]) logger() *zap.SugaredLogger {
	if l.opts.log != nil {
		return l.opts.log
	}
	return zap.S()
}

/*──────────────────────────────── pipeline ─────────────────────────────────*/

func (l *Loader[T]) load() (*loaded[T], error) {
	log := l.logger()
	log.Debugw("config root resolved", "root", l.opts.root,
		"file", l.opts.file, "dotenv", l.opts.dotenv, "secrets_dir", l.opts.secretsDir)

	records := make([]SourceRecord, 0, len(Precedence))
	layers := make([]Layer, 0, len(Precedence))
	fail := func(reason string, err error) (*loaded[T], error) {
		l.setSources(records)
		metrics.ConfigLoadErrorsTotal.WithLabelValues(reason).Inc()
		log.Errorw("config load failed", "reason", reason, "err", err)
		return nil, err
	}

	secrets, rec, err := ReadSecrets(l.opts.secretsDir, l.schema)
	records = append(records, rec)
	if err != nil {
		return fail("source", err)
	}
	layers = append(layers, Layer{Kind: SourceSecrets, Tree: secrets})

	environ, rec, err := ReadEnvironment(l.schema)
	records = append(records, rec)
	if err != nil {
		return fail("source", err)
	}
	layers = append(layers, Layer{Kind: SourceEnvironment, Tree: environ})

	dotenv, rec, err := ReadDotenv(l.opts.dotenv, l.schema)
	records = append(records, rec)
	if err != nil {
		return fail("source", err)
	}
	layers = append(layers, Layer{Kind: SourceDotenv, Tree: dotenv})

	file, rec, err := ReadFile(l.opts.file)
	if err != nil {
		if l.opts.strictFile {
			records = append(records, rec)
			return fail("source", err)
		}
		log.Warnw("config file unparsable, ignoring it", "file", l.opts.file, "err", err)
		rec.Note += ", ignored"
		file = map[string]any{}
	}
	records = append(records, rec)
	layers = append(layers, Layer{Kind: SourceFile, Tree: file})

	records = append(records, SourceRecord{Kind: SourceDefault, Location: "schema", Available: true})
	layers = append(layers, Layer{Kind: SourceDefault, Tree: l.schema.Defaults()})

	l.setSources(records)
	log.Info(Report(records))

	merged := Merge(layers...)
	cfg, err := Validate(merged.Raw(), l.schema, l.opts.root)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			metrics.ConfigViolations.Set(float64(len(ve.Violations)))
		}
		return fail("validation", err)
	}
	cfg.origins = merged.Origins()
	cfg.sources = l.Sources()

	val, err := l.decode(cfg)
	if err != nil {
		return fail("decode", fmt.Errorf("decode config: %w", err))
	}

	metrics.ConfigViolations.Set(0)
	metrics.ConfigLoadTotal.Inc()
	log.Infow("config loaded", "root", l.opts.root, "keys", len(l.schema.fields))
	return &loaded[T]{cfg: cfg, val: val}, nil
}

func (l *Loader[T]) setSources(records []SourceRecord) {
	rs := append([]SourceRecord(nil), records...)
	sortRecords(rs)
	for _, r := range rs {
		v := 0.0
		if r.Available {
			v = 1
		}
		metrics.ConfigSourceAvailable.WithLabelValues(string(r.Kind)).Set(v)
	}
	l.mu.Lock()
	l.sources = rs
	l.mu.Unlock()
	l.logger().Debugw("config sources probed", zap.Objects("sources", rs))
}
