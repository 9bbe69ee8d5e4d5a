package suitypes

import (
	"fmt"
	"strings"
)

// TypeTag is a Move type, generalized to the depth the replay core
// actually needs to name: primitives, vectors, and struct instantiations
// with (possibly nested) type arguments. Grounded on
// github.com/open-move/sui-go-sdk/typetag.TypeTag's shape, simplified to
// a single Go struct (that package's enum-of-structs is overkill once we
// only need equality, BCS round-tripping, and string rendering).
type TypeTag struct {
	Kind        TypeTagKind
	StructTag   *StructTag  // valid when Kind == TypeTagStruct
	VectorElem  *TypeTag    // valid when Kind == TypeTagVector
}

type TypeTagKind uint8

const (
	TypeTagBool TypeTagKind = iota
	TypeTagU8
	TypeTagU16
	TypeTagU32
	TypeTagU64
	TypeTagU128
	TypeTagU256
	TypeTagAddress
	TypeTagSigner
	TypeTagVector
	TypeTagStruct
)

// StructTag identifies a Move struct type: its defining address, module,
// name, and type arguments. Address is the RUNTIME-resolved address by
// the time this is used for dynamic-field hashing (spec.md §3 invariant);
// callers are responsible for alias rewriting before constructing one for
// that purpose (internal/linkage does this).
type StructTag struct {
	Address    Address
	Module     string
	Name       string
	TypeParams []TypeTag
}

func (t TypeTag) String() string {
	switch t.Kind {
	case TypeTagBool:
		return "bool"
	case TypeTagU8:
		return "u8"
	case TypeTagU16:
		return "u16"
	case TypeTagU32:
		return "u32"
	case TypeTagU64:
		return "u64"
	case TypeTagU128:
		return "u128"
	case TypeTagU256:
		return "u256"
	case TypeTagAddress:
		return "address"
	case TypeTagSigner:
		return "signer"
	case TypeTagVector:
		return "vector<" + t.VectorElem.String() + ">"
	case TypeTagStruct:
		return t.StructTag.String()
	default:
		return "invalid"
	}
}

func (s StructTag) String() string {
	base := fmt.Sprintf("%s::%s::%s", s.Address, s.Module, s.Name)
	if len(s.TypeParams) == 0 {
		return base
	}
	parts := make([]string, len(s.TypeParams))
	for i, p := range s.TypeParams {
		parts[i] = p.String()
	}
	return base + "<" + strings.Join(parts, ", ") + ">"
}

// ParseTypeTag parses the normalized Move type-tag strings the gRPC
// archive's GetFunction response carries for parameter/return types
// (spec.md §4.1, grounded on the teacher's GetFunction/GetDatatype
// normalized-signature RPCs). Only the shapes the replay core actually
// needs appear here: primitives, vector<T>, and address::module::name
// struct instantiations with comma-separated type parameters.
func ParseTypeTag(s string) (TypeTag, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "bool":
		return TypeTag{Kind: TypeTagBool}, nil
	case "u8":
		return TypeTag{Kind: TypeTagU8}, nil
	case "u16":
		return TypeTag{Kind: TypeTagU16}, nil
	case "u32":
		return TypeTag{Kind: TypeTagU32}, nil
	case "u64":
		return TypeTag{Kind: TypeTagU64}, nil
	case "u128":
		return TypeTag{Kind: TypeTagU128}, nil
	case "u256":
		return TypeTag{Kind: TypeTagU256}, nil
	case "address":
		return TypeTag{Kind: TypeTagAddress}, nil
	case "signer":
		return TypeTag{Kind: TypeTagSigner}, nil
	}
	if strings.HasPrefix(s, "vector<") && strings.HasSuffix(s, ">") {
		elem, err := ParseTypeTag(s[len("vector<") : len(s)-1])
		if err != nil {
			return TypeTag{}, fmt.Errorf("suitypes: parsing vector element %q: %w", s, err)
		}
		return TypeTag{Kind: TypeTagVector, VectorElem: &elem}, nil
	}
	tag, err := parseStructTag(s)
	if err != nil {
		return TypeTag{}, err
	}
	return TypeTag{Kind: TypeTagStruct, StructTag: &tag}, nil
}

func parseStructTag(s string) (StructTag, error) {
	var params string
	body := s
	if i := strings.IndexByte(s, '<'); i >= 0 && strings.HasSuffix(s, ">") {
		body = s[:i]
		params = s[i+1 : len(s)-1]
	}
	parts := strings.SplitN(body, "::", 3)
	if len(parts) != 3 {
		return StructTag{}, fmt.Errorf("suitypes: malformed struct tag %q", s)
	}
	addr, err := ParseAddress(parts[0])
	if err != nil {
		return StructTag{}, fmt.Errorf("suitypes: parsing struct tag address %q: %w", parts[0], err)
	}
	tag := StructTag{Address: addr, Module: parts[1], Name: parts[2]}
	for _, p := range splitTypeParams(params) {
		if p == "" {
			continue
		}
		pt, err := ParseTypeTag(p)
		if err != nil {
			return StructTag{}, err
		}
		tag.TypeParams = append(tag.TypeParams, pt)
	}
	return tag, nil
}

// splitTypeParams splits a comma-separated type-parameter list respecting
// nested angle brackets (e.g. "u64, vector<u8>" must not split inside
// "vector<u8>").
func splitTypeParams(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

// WithAddress returns a copy of the struct tag with its defining address
// replaced — the core operation behind alias rewriting (spec.md §4.3,
// §4.4 "the type tag must be rewritten through the alias map before
// hashing").
func (s StructTag) WithAddress(addr Address) StructTag {
	out := s
	out.Address = addr
	return out
}
