// Command replay-historical drives one replay directly against the live
// sources of spec.md §4.2/§6 instead of a pre-exported state file: the
// checkpoint archive over HTTP, the gRPC archive, and (optionally) the
// GraphQL package-closure discovery path. It is the production wiring
// cmd/replay-example's SourceLocal-only path never exercises: a real
// historical.Provider assembled over real ArchiveClient/grpcarchive.Client
// sources and handed to replay.Deps.Provider.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sui-sandbox/replay/internal/config"
	"github.com/sui-sandbox/replay/internal/historical"
	"github.com/sui-sandbox/replay/internal/historical/graphql"
	"github.com/sui-sandbox/replay/internal/historical/grpcarchive"
	"github.com/sui-sandbox/replay/internal/suirpc"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/internal/xlog"
	"github.com/sui-sandbox/replay/replay"
)

func main() {
	digest := flag.String("digest", "", "transaction digest to replay (required)")
	source := flag.String("source", "gRPC-hybrid", `"archive" (checkpoint archive only) or "gRPC-hybrid" (archive + gRPC)`)
	checkpoint := flag.Uint64("checkpoint", 0, "checkpoint to pin object fetches to")
	profile := flag.String("profile", "balanced", `fetch tuning profile: "safe", "balanced", or "fast"`)
	envFile := flag.String("env", "", "optional .env file overriding the built-in endpoints")
	compare := flag.Bool("compare", true, "compare built effects against the recorded effects")
	analyzeOnly := flag.Bool("analyze-only", false, "hydrate and report without executing")
	selfHeal := flag.Bool("self-heal-dynamic-fields", false, "fetch absent dynamic-field children on demand (children no source returns are not synthesized)")
	synthesizeMissing := flag.Bool("synthesize-missing", false, "substitute placeholder bytes for data-gap inputs")
	graphqlRoot := flag.String("graphql-discover-root", "", "optional package address to pre-discover via GraphQL before the replay's own package-closure fetch")
	flag.Parse()

	if *digest == "" {
		fmt.Fprintln(os.Stderr, "usage: replay-historical -digest <tx digest> [-source archive|gRPC-hybrid]")
		os.Exit(2)
	}

	log := xlog.New(xlog.DefaultOptions())
	ctx := context.Background()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}
	tuning := cfg.Tuning(config.Profile(*profile))

	cache, err := historical.NewCache(4096, 256)
	if err != nil {
		log.WithError(err).Fatal("building local cache")
	}

	archiveClient := historical.NewArchiveClient(cfg.ArchiveCacheEndpoint, cfg.ArchiveBlobEndpoint, tuning.ArchiveTimeout, tuning.MaxRetries)

	conn, err := grpc.NewClient(cfg.GRPCEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.WithError(err).Fatal("dialing gRPC archive")
	}
	defer conn.Close()
	grpcClient := grpcarchive.New(suirpc.NewLedgerServiceClient(conn)).
		WithMovePackageService(suirpc.NewMovePackageServiceClient(conn))

	if *graphqlRoot != "" {
		root, err := suitypes.ParseAddress(*graphqlRoot)
		if err != nil {
			log.WithError(err).Fatal("parsing -graphql-discover-root")
		}
		breaker := graphql.NewCircuitBreaker(5, 30*time.Second)
		gqlClient := graphql.New(cfg.GraphQLEndpoint, breaker)
		closure, err := gqlClient.FetchPackageClosure(ctx, root)
		if err != nil {
			log.WithError(err).Warn("graphql package-closure discovery failed, continuing with gRPC-only discovery")
		} else {
			log.WithField("package_count", len(closure)).Info("graphql discovered package closure")
		}
	}

	var objectSources []historical.ObjectSource
	var replaySource replay.Source
	switch *source {
	case "archive":
		replaySource = replay.SourceArchive
		objectSources = []historical.ObjectSource{historical.NewArchiveObjectSource(archiveClient, *checkpoint)}
	case "gRPC-hybrid":
		replaySource = replay.SourceGRPCHybrid
		objectSources = []historical.ObjectSource{
			historical.NewArchiveObjectSource(archiveClient, *checkpoint),
			historical.NewGRPCObjectSource(grpcClient.FetchObjectAtVersion),
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown -source %q: must be \"archive\" or \"gRPC-hybrid\"\n", *source)
		os.Exit(2)
	}

	provider := historical.NewProvider(cache, objectSources, grpcClient, grpcClient,
		historical.WithConcurrency(tuning.ObjectConcurrency, tuning.PackageConcurrency))

	opts := replay.Options{
		Source:                replaySource,
		Checkpoint:            *checkpoint,
		Profile:               config.Profile(*profile),
		Compare:               *compare,
		AnalyzeOnly:           *analyzeOnly,
		SelfHealDynamicFields: *selfHeal,
		SynthesizeMissing:     *synthesizeMissing,
	}
	deps := replay.Deps{
		Provider:   provider,
		Signatures: grpcClient.FetchFunctionSignature,
		Log:        log,
	}

	envelope, err := replay.Replay(ctx, *digest, opts, deps)
	if err != nil {
		log.WithError(err).Fatal("replay failed")
	}

	out, err := json.MarshalIndent(envelopeSummary{
		LocalSuccess:     envelope.LocalSuccess,
		CommandsExecuted: envelope.CommandsExecuted,
		ExecutionPath:    envelope.ExecutionPath,
		Abort:            envelope.Abort,
		Comparison:       envelope.Comparison,
	}, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("marshaling envelope summary")
	}
	fmt.Println(string(out))
}

type envelopeSummary struct {
	LocalSuccess     bool
	CommandsExecuted int
	ExecutionPath    replay.ExecutionPath
	Abort            interface{}
	Comparison       interface{}
}
