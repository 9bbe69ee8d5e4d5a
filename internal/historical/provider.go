// Package historical implements the Historical State Provider
// (spec.md §4.2, C2): a priority chain of local cache, checkpoint
// archive, and gRPC archive sources, with a binary-search fallback and
// an opt-in bounded recursive parent scan, all behind bounded-concurrency
// fan-out (spec.md §5).
package historical

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ObjectSource is satisfied by both the checkpoint archive and the gRPC
// archive clients (spec.md §4.2 priority chain).
type ObjectSource interface {
	FetchObjectAtVersion(ctx context.Context, id suitypes.ObjectID, version uint64) (*suitypes.Object, error)
}

// archiveObjectSource adapts ArchiveClient's checkpoint-scoped signature
// to the ObjectSource interface, pinning the checkpoint captured at
// construction time.
type archiveObjectSource struct {
	archive    *ArchiveClient
	checkpoint uint64
}

func (s archiveObjectSource) FetchObjectAtVersion(ctx context.Context, id suitypes.ObjectID, version uint64) (*suitypes.Object, error) {
	return s.archive.FetchObjectAtVersion(ctx, id, version, s.checkpoint)
}

// PackageSource is satisfied by the gRPC archive client; the checkpoint
// archive has no equivalent per-package endpoint in spec.md §4.2, so
// package closures always resolve through gRPC or GraphQL.
type PackageSource interface {
	FetchPackageClosure(ctx context.Context, packageID suitypes.Address, checkpoint uint64) (*suitypes.Package, error)
}

// TransactionSource fetches a transaction record plus recorded effects.
type TransactionSource interface {
	FetchTransaction(ctx context.Context, digest string) (*suitypes.TransactionRecord, error)
}

// Provider is the C2 implementation: a cache-first, priority-ordered
// chain of sources, with bounded fan-out for multi-object/package
// fetches (spec.md §5 "default 16 concurrent object fetches, 8 concurrent
// package closures").
type Provider struct {
	cache   *Cache
	objects []ObjectSource // priority order: checkpoint archive, then gRPC
	pkgs    PackageSource
	txs     TransactionSource

	objectConcurrency  int
	packageConcurrency int
}

// Option configures a Provider at construction.
type Option func(*Provider)

func WithConcurrency(objects, packages int) Option {
	return func(p *Provider) { p.objectConcurrency, p.packageConcurrency = objects, packages }
}

// NewProvider builds a provider over a cache and a prioritized list of
// object sources (spec.md §4.2 "Sources in priority order").
func NewProvider(cache *Cache, objects []ObjectSource, pkgs PackageSource, txs TransactionSource, opts ...Option) *Provider {
	p := &Provider{
		cache:              cache,
		objects:            objects,
		pkgs:               pkgs,
		txs:                txs,
		objectConcurrency:  16,
		packageConcurrency: 8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchObjectAtVersion tries the cache, then each object source in
// priority order, returning ErrDataGap only once every source has been
// exhausted (spec.md §4.2).
func (p *Provider) FetchObjectAtVersion(ctx context.Context, id suitypes.ObjectID, version, checkpoint uint64) (*suitypes.Object, error) {
	if obj, ok := p.cache.GetObject(id, version); ok {
		return obj, nil
	}

	var tried []string
	for i, src := range p.objects {
		obj, err := src.FetchObjectAtVersion(ctx, id, version)
		tried = append(tried, sourceLabel(i))
		if err == nil {
			p.cache.PutObject(obj)
			return obj, nil
		}
	}
	return nil, &ErrDataGap{ID: id, RequestVersion: version, Checkpoint: checkpoint, SourcesTried: tried}
}

func sourceLabel(i int) string {
	if i == 0 {
		return "checkpoint_archive"
	}
	return "grpc_archive"
}

// FetchObjectsAtVersions fetches many (id, version) pairs under a
// bounded-concurrency semaphore, matching spec.md §5's default 16
// concurrent object fetches.
func (p *Provider) FetchObjectsAtVersions(ctx context.Context, requests map[suitypes.ObjectID]uint64, checkpoint uint64) (map[suitypes.ObjectID]*suitypes.Object, error) {
	sem := semaphore.NewWeighted(int64(p.objectConcurrency))
	group, gctx := errgroup.WithContext(ctx)

	results := make(map[suitypes.ObjectID]*suitypes.Object, len(requests))
	var mu sync.Mutex

	for id, version := range requests {
		id, version := id, version
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, err
		}
		group.Go(func() error {
			defer sem.Release(1)
			obj, err := p.FetchObjectAtVersion(gctx, id, version, checkpoint)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = obj
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FetchPackageClosure returns the root package plus every transitive
// dependency pinned to checkpoint, fetching dependencies under bounded
// concurrency (spec.md §4.2, §5 "8 concurrent package closures").
func (p *Provider) FetchPackageClosure(ctx context.Context, root suitypes.Address, checkpoint uint64) (map[suitypes.Address]*suitypes.Package, error) {
	if cached, ok := p.cache.GetPackage(root); ok {
		return p.walkClosureFromCache(ctx, cached, checkpoint)
	}

	out := make(map[suitypes.Address]*suitypes.Package)
	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(p.packageConcurrency))
	group, gctx := errgroup.WithContext(ctx)

	seen := map[suitypes.Address]bool{root: true}
	queue := []suitypes.Address{root}

	for len(queue) > 0 {
		batch := queue
		queue = nil
		for _, addr := range batch {
			addr := addr
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil, err
			}
			group.Go(func() error {
				defer sem.Release(1)
				pkg, err := p.pkgs.FetchPackageClosure(gctx, addr, checkpoint)
				if err != nil {
					return err
				}
				p.cache.PutPackage(pkg)
				mu.Lock()
				out[addr] = pkg
				for _, entry := range pkg.Linkage {
					if !seen[entry.StorageAddress] {
						seen[entry.StorageAddress] = true
						queue = append(queue, entry.StorageAddress)
					}
				}
				mu.Unlock()
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Provider) walkClosureFromCache(ctx context.Context, root *suitypes.Package, checkpoint uint64) (map[suitypes.Address]*suitypes.Package, error) {
	out := map[suitypes.Address]*suitypes.Package{root.RuntimeAddress: root}
	for _, entry := range root.Linkage {
		if _, ok := out[entry.StorageAddress]; ok {
			continue
		}
		if cached, ok := p.cache.GetPackage(entry.StorageAddress); ok {
			out[entry.StorageAddress] = cached
			continue
		}
		pkg, err := p.pkgs.FetchPackageClosure(ctx, entry.StorageAddress, checkpoint)
		if err != nil {
			return nil, err
		}
		p.cache.PutPackage(pkg)
		out[entry.StorageAddress] = pkg
	}
	return out, nil
}

// FetchTransaction returns the transaction record and effects.
func (p *Provider) FetchTransaction(ctx context.Context, digest string) (*suitypes.TransactionRecord, error) {
	return p.txs.FetchTransaction(ctx, digest)
}

// NewArchiveObjectSource adapts an ArchiveClient pinned to one
// checkpoint into an ObjectSource for priority-chain construction.
func NewArchiveObjectSource(archive *ArchiveClient, checkpoint uint64) ObjectSource {
	return archiveObjectSource{archive: archive, checkpoint: checkpoint}
}

// grpcObjectSource adapts grpcarchive.Client (which has no checkpoint
// parameter — gRPC fetches are always version-pinned, not
// checkpoint-scoped) into an ObjectSource.
type grpcObjectSource struct {
	fetch func(ctx context.Context, id suitypes.ObjectID, version uint64) (*suitypes.Object, error)
}

func (s grpcObjectSource) FetchObjectAtVersion(ctx context.Context, id suitypes.ObjectID, version uint64) (*suitypes.Object, error) {
	return s.fetch(ctx, id, version)
}

// NewGRPCObjectSource wraps any version-pinned object fetch function
// (typically grpcarchive.Client.FetchObjectAtVersion) as an ObjectSource.
func NewGRPCObjectSource(fetch func(ctx context.Context, id suitypes.ObjectID, version uint64) (*suitypes.Object, error)) ObjectSource {
	return grpcObjectSource{fetch: fetch}
}

// RecursiveParentScan implements the opt-in mitigation of spec.md §9
// "Open question": when unchanged_loaded_runtime_objects is absent,
// recursively probe a bounded number of ancestor checkpoints for the
// parent's most recent known state, stopping at the first checkpoint
// that has it. Replay does not call it; a caller invokes it directly
// with its own maxDepth.
func (p *Provider) RecursiveParentScan(ctx context.Context, archive *ArchiveClient, parent suitypes.ObjectID, fromCheckpoint uint64, maxDepth int) (*suitypes.Object, error) {
	checkpoint := fromCheckpoint
	for depth := 0; depth < maxDepth && checkpoint > 0; depth++ {
		meta, err := archive.blobFor(ctx, checkpoint)
		if err == nil {
			if version, found := scanBlobForObjectVersion(mustFetchBlobBytes(ctx, archive, meta), parent); found {
				return archive.FetchObjectAtVersion(ctx, parent, version, checkpoint)
			}
		}
		checkpoint--
	}
	return nil, &ErrDataGap{ID: parent, Checkpoint: fromCheckpoint, SourcesTried: []string{"recursive_parent_scan"}}
}

func mustFetchBlobBytes(ctx context.Context, archive *ArchiveClient, meta checkpointMetadata) []byte {
	raw, err := archive.fetchBlobRange(ctx, meta)
	if err != nil {
		return nil
	}
	return raw
}
