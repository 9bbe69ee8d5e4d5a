package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

func TestLoadAndResolve(t *testing.T) {
	r := New(nil)
	original := suitypes.MustAddress("0x1eabed72")
	runtime := suitypes.MustAddress("0x75b2e9ec")

	modules := map[string][]byte{"pool": []byte("bytecode-v2")}
	require.NoError(t, r.LoadModulesAt(runtime, modules, nil))

	// Before aliasing, looking up under the original address fails.
	_, err := r.Resolve(original, "pool")
	require.Error(t, err)

	r.SetAliases(map[suitypes.Address]suitypes.Address{original: runtime})

	// After aliasing, both the original and runtime address resolve to
	// the same bytes (spec.md §8 invariant 7).
	byOriginal, err := r.Resolve(original, "pool")
	require.NoError(t, err)
	byRuntime, err := r.Resolve(runtime, "pool")
	require.NoError(t, err)
	require.Equal(t, byRuntime, byOriginal)
}

func TestReloadIdempotentOrDuplicate(t *testing.T) {
	r := New(nil)
	addr := suitypes.MustAddress("0x2")
	modules := map[string][]byte{"coin": []byte("v1")}
	require.NoError(t, r.LoadModulesAt(addr, modules, nil))
	require.NoError(t, r.LoadModulesAt(addr, modules, nil))

	changed := map[string][]byte{"coin": []byte("v2")}
	err := r.LoadModulesAt(addr, changed, nil)
	require.Error(t, err)
	var dup *ErrDuplicateLoad
	require.ErrorAs(t, err, &dup)
}

func TestSubstituteArityMismatch(t *testing.T) {
	sig := FunctionSignature{TypeParamCount: 1}
	_, _, err := Substitute(sig, nil)
	require.Error(t, err)
}
