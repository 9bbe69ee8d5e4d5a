package linkage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

func TestAddPackageBuildsAliasOnlyForUpgrades(t *testing.T) {
	m := NewBuilder()
	original := suitypes.MustAddress("0x1eabed72")
	runtime := suitypes.MustAddress("0x75b2e9ec")

	require.NoError(t, m.AddPackage(&suitypes.Package{OriginalAddress: original, RuntimeAddress: runtime}))
	require.Equal(t, runtime, m.Resolve(original))

	// A non-upgraded package (original == runtime) adds no alias entry.
	same := suitypes.MustAddress("0x2")
	require.NoError(t, m.AddPackage(&suitypes.Package{OriginalAddress: same, RuntimeAddress: same}))
	require.Equal(t, same, m.Resolve(same))
	require.Len(t, m.Aliases(), 1)
}

func TestConflictingAliasRejected(t *testing.T) {
	m := NewBuilder()
	original := suitypes.MustAddress("0x1eabed72")
	runtimeA := suitypes.MustAddress("0x75b2e9ec")
	runtimeB := suitypes.MustAddress("0x99999999")

	require.NoError(t, m.AddPackage(&suitypes.Package{OriginalAddress: original, RuntimeAddress: runtimeA}))
	err := m.AddPackage(&suitypes.Package{OriginalAddress: original, RuntimeAddress: runtimeB})
	require.Error(t, err)
}

func TestRewriteStructTagRewritesNestedTypeParams(t *testing.T) {
	m := NewBuilder()
	original := suitypes.MustAddress("0xefe8b36d")
	runtime := suitypes.MustAddress("0xd384ded6")
	require.NoError(t, m.AddPackage(&suitypes.Package{OriginalAddress: original, RuntimeAddress: runtime}))

	usdc := suitypes.StructTag{Address: suitypes.MustAddress("0x2"), Module: "coin", Name: "USDC"}
	key := suitypes.StructTag{
		Address: original,
		Module:  "lending",
		Name:    "MinCollateralAmountKey",
		TypeParams: []suitypes.TypeTag{
			{Kind: suitypes.TypeTagStruct, StructTag: &usdc},
		},
	}
	rewritten := m.RewriteStructTag(key)
	require.Equal(t, runtime, rewritten.Address)
	require.Equal(t, suitypes.MustAddress("0x2"), rewritten.TypeParams[0].StructTag.Address)
}
