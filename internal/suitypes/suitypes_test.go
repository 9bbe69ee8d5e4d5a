package suitypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddressPadsAndNormalizes(t *testing.T) {
	a, err := ParseAddress("0x2")
	require.NoError(t, err)
	require.Equal(t, SuiFrameworkAddress, a)
	require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000002", a.String())

	b, err := ParseAddress("0X2")
	require.NoError(t, err)
	require.Equal(t, a, b)

	odd, err := ParseAddress("0x123")
	require.NoError(t, err)
	require.False(t, odd.IsZero())
}

func TestParseAddressTooLong(t *testing.T) {
	_, err := ParseAddress("0x" + string(make([]byte, 65)))
	require.Error(t, err)
}

func TestDigestBase58RoundTrip(t *testing.T) {
	d := Digest{1, 2, 3, 4, 5}
	encoded := d.Base58()
	decoded, err := DigestFromBase58(encoded)
	require.NoError(t, err)
	require.Equal(t, d, decoded)
	require.False(t, d.IsZero())
	require.True(t, ZeroDigest.IsZero())
}

func TestParseTypeTagPrimitives(t *testing.T) {
	for in, kind := range map[string]TypeTagKind{
		"bool": TypeTagBool, "u8": TypeTagU8, "u64": TypeTagU64,
		"address": TypeTagAddress, "signer": TypeTagSigner,
	} {
		tag, err := ParseTypeTag(in)
		require.NoError(t, err)
		require.Equal(t, kind, tag.Kind)
		require.Equal(t, in, tag.String())
	}
}

func TestParseTypeTagVectorAndStruct(t *testing.T) {
	tag, err := ParseTypeTag("vector<u8>")
	require.NoError(t, err)
	require.Equal(t, TypeTagVector, tag.Kind)
	require.Equal(t, "vector<u8>", tag.String())

	coin, err := ParseTypeTag("0x2::coin::Coin<0x2::sui::SUI>")
	require.NoError(t, err)
	require.Equal(t, TypeTagStruct, coin.Kind)
	require.Equal(t, "coin", coin.StructTag.Module)
	require.Equal(t, "Coin", coin.StructTag.Name)
	require.Len(t, coin.StructTag.TypeParams, 1)
	require.Equal(t, SuiFrameworkAddress, coin.StructTag.Address)
	require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000002::coin::Coin<0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI>", coin.String())
}

func TestParseTypeTagNestedTypeParams(t *testing.T) {
	tag, err := ParseTypeTag("0x2::table::Table<u64, vector<0x2::coin::Coin<0x2::sui::SUI>>>")
	require.NoError(t, err)
	require.Len(t, tag.StructTag.TypeParams, 2)
	require.Equal(t, TypeTagU64, tag.StructTag.TypeParams[0].Kind)
	require.Equal(t, TypeTagVector, tag.StructTag.TypeParams[1].Kind)
}

func TestParseTypeTagMalformed(t *testing.T) {
	_, err := ParseTypeTag("not::a::valid::tag::at::all")
	require.Error(t, err)
}

func TestStructTagWithAddress(t *testing.T) {
	tag := StructTag{Address: MoveStdlibAddress, Module: "option", Name: "Option"}
	rewritten := tag.WithAddress(SuiFrameworkAddress)
	require.Equal(t, SuiFrameworkAddress, rewritten.Address)
	require.Equal(t, MoveStdlibAddress, tag.Address, "original must be unmodified")
}
