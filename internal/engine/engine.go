// Package engine wires the Platform Probe, Rule Evaluator, Version
// Graph Resolver, Dependency Builder, Artifact Resolver, and Worker
// Pool together into the three operations an external caller needs:
// listing versions, materializing one version's dependency tree, and
// building its launch plan. It never execs a process: the returned
// LaunchPlan is handed to an external process supervisor.
package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/brackenforge/mcengine/internal/artifact"
	"github.com/brackenforge/mcengine/internal/depsbuilder"
	"github.com/brackenforge/mcengine/internal/engineerr"
	"github.com/brackenforge/mcengine/internal/java"
	"github.com/brackenforge/mcengine/internal/pool"
	"github.com/brackenforge/mcengine/internal/resolver"
	"github.com/brackenforge/mcengine/internal/versiongraph"
)

// Config is the in-memory directory layout and tuning knobs the
// Engine needs. There is no persistent config file: a caller that
// wants one owns reading/writing it itself and passes the resulting
// values in here.
type Config struct {
	GameDir     string
	WorkerCount int

	// JavaPath, when set, skips detection/download entirely.
	JavaPath string
	// JavaManagedDir is where a downloaded runtime is installed when
	// no suitable system Java is found.
	JavaManagedDir string
}

// DefaultConfig returns a Config rooted at gameDir with reasonable
// defaults, mirroring the teacher's config layout (data dir with
// versions/libraries/assets subdirectories) minus persistence.
func DefaultConfig(gameDir string) Config {
	return Config{
		GameDir:        gameDir,
		WorkerCount:    4,
		JavaManagedDir: filepath.Join(gameDir, "runtime"),
	}
}

// Engine is the facade over every Engine component.
type Engine struct {
	cfg      Config
	log      logr.Logger
	graph    *versiongraph.Graph
	resolver *resolver.Resolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger injects the logging sink used by every component.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New builds an Engine over cfg.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	e.graph = versiongraph.New(cfg.GameDir, versiongraph.WithLogger(e.log))
	e.resolver = resolver.New(resolver.WithLogger(e.log))
	return e
}

// ListVersions returns every version the Engine can load, local and
// remote together, sorted by release time descending.
func (e *Engine) ListVersions(ctx context.Context) ([]versiongraph.Summary, error) {
	return e.graph.ListVersions(ctx)
}

// ResolveOptions configures a single materialize-and-plan call.
type ResolveOptions struct {
	VersionID string
	Plan      depsbuilder.PlanOptions
	// SkipIfCached, when true and the caller already knows this
	// version's files are present and verified, skips the worker pool
	// entirely and only (re)builds the launch plan. This folds in the
	// teacher's per-instance IsFullyDownloaded short circuit without
	// reviving its persisted instance record.
	SkipIfCached bool
}

// Result is everything BuildPlan produces: the launch plan plus the
// resolved version record, for callers that want to inspect it.
type Result struct {
	Plan   *depsbuilder.LaunchPlan
	Record *versiongraph.VersionRecord
}

// BuildPlan materializes versionID's full dependency tree (Java
// runtime, client jar, libraries and natives, assets, log config) and
// assembles its LaunchPlan.
func (e *Engine) BuildPlan(ctx context.Context, opts ResolveOptions) (*Result, error) {
	versions, err := e.graph.ListVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	record, err := e.graph.Load(ctx, versions, opts.VersionID)
	if err != nil {
		return nil, fmt.Errorf("loading version %s: %w", opts.VersionID, err)
	}

	javaPath, err := e.resolveJava(ctx, record)
	if err != nil {
		return nil, err
	}

	versionsDir := e.graph.VersionsDir()
	var enqueued []artifact.Artifact
	addArtifact := func(a artifact.Artifact) { enqueued = append(enqueued, a) }

	builder := depsbuilder.New(addArtifact, e.cfg.GameDir, versionsDir, opts.VersionID, record, e.log)

	assetsIndexName := record.Assets
	if !opts.SkipIfCached {
		if clientArtifact, ok, err := builder.ClientArtifact(); err != nil {
			return nil, fmt.Errorf("building client artifact: %w", err)
		} else if ok {
			if _, err := e.resolver.Resolve(ctx, clientArtifact); err != nil {
				return nil, fmt.Errorf("resolving client jar: %w", err)
			}
		}

		assetIndexArtifact, err := builder.AssetIndexArtifact()
		if err != nil {
			return nil, fmt.Errorf("building asset index artifact: %w", err)
		}
		assetIndexPath, err := e.resolver.Resolve(ctx, assetIndexArtifact)
		if err != nil {
			return nil, fmt.Errorf("resolving asset index: %w", err)
		}
		assetsIndexName, err = builder.EnqueueAssets(assetIndexPath)
		if err != nil {
			return nil, fmt.Errorf("enqueueing assets: %w", err)
		}
	}

	libs, err := builder.EnqueueLibraries()
	if err != nil {
		return nil, fmt.Errorf("enqueueing libraries: %w", err)
	}

	logArtifact, argTemplate, hasLogConfig, err := builder.LogConfigArtifact()
	if err != nil {
		return nil, fmt.Errorf("building log config artifact: %w", err)
	}
	if hasLogConfig && !opts.SkipIfCached {
		enqueued = append(enqueued, logArtifact)
	}

	if !opts.SkipIfCached {
		if err := e.drain(ctx, enqueued); err != nil {
			return nil, fmt.Errorf("materializing dependencies: %w", err)
		}
	}

	var logConfigArg string
	if hasLogConfig {
		if opts.SkipIfCached {
			logConfigArg = argTemplate
		} else if err := depsbuilder.RewriteLogConfig(logArtifact.FullPath()); err != nil {
			e.log.Error(err, "rewriting log config", "path", logArtifact.FullPath())
		} else {
			logConfigArg = argTemplate
		}
	}

	opts.Plan.JavaPath = javaPath
	opts.Plan.GameDir = e.cfg.GameDir
	plan, err := builder.BuildLaunchPlan(opts.Plan, builder.ClientPath(), libs, assetsIndexName, logConfigArg)
	if err != nil {
		return nil, fmt.Errorf("building launch plan: %w", err)
	}
	return &Result{Plan: plan, Record: record}, nil
}

// resolveJava honors an explicit override, then falls back to system
// detection, then to downloading a managed runtime, matching
// launcher.go's checkJava four-tier fallback generalized to the
// version's required major version instead of a fixed one.
func (e *Engine) resolveJava(ctx context.Context, record *versiongraph.VersionRecord) (string, error) {
	if e.cfg.JavaPath != "" {
		return e.cfg.JavaPath, nil
	}

	required := record.JavaVersion.MajorVersion
	if required == 0 {
		required = 8
	}

	if best := java.NewDetector().FindBest(required); best != nil && best.SatisfiesMinimum(required) {
		return best.Path, nil
	}

	downloader := java.NewDownloader()
	path, err := downloader.DownloadRuntime(ctx, required, e.cfg.JavaManagedDir, func(string) {})
	if err != nil {
		return "", engineerr.New(engineerr.JavaUnavailable, fmt.Sprintf("java %d", required), err)
	}
	return path, nil
}

func (e *Engine) drain(ctx context.Context, artifacts []artifact.Artifact) error {
	p := pool.New(e.resolver, e.cfg.WorkerCount, len(artifacts)+1, e.log)
	for _, a := range artifacts {
		p.AddArtifact(a)
	}
	p.Close()
	return p.Run(ctx)
}
