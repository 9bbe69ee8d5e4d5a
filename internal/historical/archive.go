package historical

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sui-sandbox/replay/internal/bcs"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ArchiveClient is the checkpoint-archive HTTP source of spec.md §4.2:
// a cache server for JSON metadata (latest checkpoint, blob locations)
// fronting an aggregator that serves byte-ranges of BCS-encoded
// checkpoint blobs.
type ArchiveClient struct {
	cacheEndpoint string
	blobEndpoint  string
	http          *http.Client
	timeout       time.Duration
	maxRetries    int
}

// NewArchiveClient builds a client against the two endpoints of
// spec.md §6 "Checkpoint archive".
func NewArchiveClient(cacheEndpoint, blobEndpoint string, timeout time.Duration, maxRetries int) *ArchiveClient {
	return &ArchiveClient{
		cacheEndpoint: cacheEndpoint,
		blobEndpoint:  blobEndpoint,
		http:          &http.Client{Timeout: timeout},
		timeout:       timeout,
		maxRetries:    maxRetries,
	}
}

// checkpointMetadata mirrors the cache server's JSON shape for a single
// checkpoint lookup (spec.md §6 "blob_for(checkpoint)").
type checkpointMetadata struct {
	Checkpoint uint64 `json:"checkpoint"`
	BlobURL    string `json:"blob_url"`
	ByteStart  int64  `json:"byte_start"`
	ByteLen    int64  `json:"byte_len"`
}

// LatestCheckpoint returns the archive's most recently indexed
// checkpoint (spec.md §6 "latest").
func (a *ArchiveClient) LatestCheckpoint(ctx context.Context) (uint64, error) {
	var out struct {
		Checkpoint uint64 `json:"checkpoint"`
	}
	if err := a.getJSON(ctx, a.cacheEndpoint+"/latest", &out); err != nil {
		return 0, err
	}
	return out.Checkpoint, nil
}

// blobFor resolves a checkpoint to its blob location, retrying transient
// failures with capped exponential backoff (spec.md §4.2 "transient
// network failures are retried with capped exponential backoff").
func (a *ArchiveClient) blobFor(ctx context.Context, checkpoint uint64) (checkpointMetadata, error) {
	var meta checkpointMetadata
	op := func() error {
		return a.getJSON(ctx, fmt.Sprintf("%s/blob_for/%d", a.cacheEndpoint, checkpoint), &meta)
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(a.maxRetries))
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return checkpointMetadata{}, &ErrTimeout{Source: "checkpoint_archive", Op: fmt.Sprintf("blob_for(%d)", checkpoint)}
	}
	return meta, nil
}

// FetchObjectAtVersion implements the C2 contract's
// fetch_object_at_version by loading the checkpoint blob expected to
// contain the object's given version and scanning its BCS-encoded object
// table (spec.md §4.2). Returns ErrDataGap if the checkpoint never
// indexed the object at that exact version.
func (a *ArchiveClient) FetchObjectAtVersion(ctx context.Context, id suitypes.ObjectID, version, checkpoint uint64) (*suitypes.Object, error) {
	meta, err := a.blobFor(ctx, checkpoint)
	if err != nil {
		return nil, err
	}
	raw, err := a.fetchBlobRange(ctx, meta)
	if err != nil {
		return nil, err
	}
	obj, ok := scanBlobForObject(raw, id, version)
	if !ok {
		return nil, &ErrDataGap{ID: id, RequestVersion: version, Checkpoint: checkpoint, SourcesTried: []string{"checkpoint_archive"}}
	}
	return obj, nil
}

// BinarySearchCheckpoint probes checkpoints between lo and hi to find
// the one where id first holds the target version — the fallback
// spec.md §4.2 requires "when neither archive indexes an object at the
// required version."
func (a *ArchiveClient) BinarySearchCheckpoint(ctx context.Context, id suitypes.ObjectID, targetVersion, lo, hi uint64) (uint64, error) {
	for lo < hi {
		mid := lo + (hi-lo)/2
		meta, err := a.blobFor(ctx, mid)
		if err != nil {
			return 0, err
		}
		raw, err := a.fetchBlobRange(ctx, meta)
		if err != nil {
			return 0, err
		}
		version, found := scanBlobForObjectVersion(raw, id)
		if !found || version < targetVersion {
			lo = mid + 1
			continue
		}
		hi = mid
	}
	return lo, nil
}

func (a *ArchiveClient) fetchBlobRange(ctx context.Context, meta checkpointMetadata) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.BlobURL, nil)
	if err != nil {
		return nil, fmt.Errorf("historical: building blob request: %w", err)
	}
	if meta.ByteLen > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", meta.ByteStart, meta.ByteStart+meta.ByteLen-1))
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, &ErrTimeout{Source: "checkpoint_archive", Op: "fetch_blob"}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("historical: blob fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (a *ArchiveClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return &ErrTimeout{Source: "checkpoint_archive", Op: url}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("historical: request to %s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// blobObjectRecord is the per-object entry inside a checkpoint blob,
// BCS-encoded in declaration order (spec.md §6 "BCS serialization").
type blobObjectRecord struct {
	ID      [32]byte `bcs:"id"`
	Version uint64   `bcs:"version"`
	Owner   uint8    `bcs:"owner_kind"`
	BCSData []byte   `bcs:"data"`
}

// blobTable is the top-level decoded shape of one checkpoint blob: a
// length-prefixed vector of object records.
type blobTable struct {
	Objects []blobObjectRecord `bcs:"objects"`
}

func scanBlobForObject(raw []byte, id suitypes.ObjectID, version uint64) (*suitypes.Object, bool) {
	var table blobTable
	if err := bcs.Unmarshal(raw, &table); err != nil {
		return nil, false
	}
	for _, rec := range table.Objects {
		if suitypes.Address(rec.ID) == id && rec.Version == version {
			return &suitypes.Object{ID: id, Version: rec.Version, BCS: rec.BCSData}, true
		}
	}
	return nil, false
}

func scanBlobForObjectVersion(raw []byte, id suitypes.ObjectID) (uint64, bool) {
	var table blobTable
	if err := bcs.Unmarshal(raw, &table); err != nil {
		return 0, false
	}
	for _, rec := range table.Objects {
		if suitypes.Address(rec.ID) == id {
			return rec.Version, true
		}
	}
	return 0, false
}
