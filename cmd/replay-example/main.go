// Command replay-example drives one local replay from a state-export
// JSON file (spec.md §6 "source: local"), printing the resulting
// envelope. It exercises replay.Replay end to end without requiring any
// network access. With no -guest-wasm, the harness runs with no guest at
// all — enough for transactions that never cross into real Move
// bytecode; passing -guest-wasm instantiates a real compiled Move VM
// guest through the default C7 wiring (spec.md §4.7).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"

	"github.com/sui-sandbox/replay/internal/xlog"
	"github.com/sui-sandbox/replay/replay"
)

func main() {
	stateFile := flag.String("state", "", "path to a state export JSON file (required)")
	compare := flag.Bool("compare", true, "compare built effects against the recorded effects")
	analyzeOnly := flag.Bool("analyze-only", false, "hydrate and report without executing")
	guestWasmPath := flag.String("guest-wasm", "", "optional compiled Move VM guest module; omit to run with MockedNatives-only coverage")
	flag.Parse()

	if *stateFile == "" {
		fmt.Fprintln(os.Stderr, "usage: replay-example -state path/to/state.json")
		os.Exit(2)
	}

	log := xlog.New(xlog.DefaultOptions())

	opts := replay.Options{
		Source:      replay.SourceLocal,
		StateFile:   *stateFile,
		Compare:     *compare,
		AnalyzeOnly: *analyzeOnly,
	}
	deps := replay.Deps{Log: log}
	if *guestWasmPath != "" {
		guestWasm, err := os.ReadFile(*guestWasmPath)
		if err != nil {
			log.WithError(err).Fatal("reading -guest-wasm")
		}
		deps.Runtime = wazero.NewRuntime(context.Background())
		defer deps.Runtime.Close(context.Background())
		deps.GuestWasm = guestWasm
	}

	envelope, err := replay.Replay(context.Background(), "", opts, deps)
	if err != nil {
		log.WithError(err).Fatal("replay failed")
	}

	out, err := json.MarshalIndent(envelopeSummary{
		LocalSuccess:     envelope.LocalSuccess,
		CommandsExecuted: envelope.CommandsExecuted,
		ExecutionPath:    envelope.ExecutionPath,
		Abort:            envelope.Abort,
	}, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("marshaling envelope summary")
	}
	fmt.Println(string(out))
}

// envelopeSummary trims replay.Envelope down to its JSON-friendly
// fields for command-line reporting.
type envelopeSummary struct {
	LocalSuccess     bool
	CommandsExecuted int
	ExecutionPath    replay.ExecutionPath
	Abort            interface{}
}
