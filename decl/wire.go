package decl

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical encoding so that identical trees always
// serialize to identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("decl: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// envelope is the wire form of a Decl: exactly one field is set.
type envelope struct {
	Func   *Func   `cbor:"func,omitempty"`
	Class  *Class  `cbor:"class,omitempty"`
	Const  *Const  `cbor:"const,omitempty"`
	Enum   *Enum   `cbor:"enum,omitempty"`
	Var    *Var    `cbor:"var,omitempty"`
	Opaque *Opaque `cbor:"opaque,omitempty"`
}

func wrap(d Decl) (envelope, error) {
	switch d := d.(type) {
	case *Func:
		return envelope{Func: d}, nil
	case *Class:
		return envelope{Class: d}, nil
	case *Const:
		return envelope{Const: d}, nil
	case *Enum:
		return envelope{Enum: d}, nil
	case *Var:
		return envelope{Var: d}, nil
	case *Opaque:
		return envelope{Opaque: d}, nil
	}
	return envelope{}, fmt.Errorf("decl: cannot encode %T", d)
}

func (e envelope) unwrap() (Decl, error) {
	var found []Decl
	if e.Func != nil {
		found = append(found, e.Func)
	}
	if e.Class != nil {
		found = append(found, e.Class)
	}
	if e.Const != nil {
		found = append(found, e.Const)
	}
	if e.Enum != nil {
		found = append(found, e.Enum)
	}
	if e.Var != nil {
		found = append(found, e.Var)
	}
	if e.Opaque != nil {
		found = append(found, e.Opaque)
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("decl: envelope holds %d declarations, want 1", len(found))
	}
	return found[0], nil
}

// MarshalCBOR encodes the list as an array of one-of envelopes.
func (ds Decls) MarshalCBOR() ([]byte, error) {
	envs := make([]envelope, 0, len(ds))
	for _, d := range ds {
		e, err := wrap(d)
		if err != nil {
			return nil, err
		}
		envs = append(envs, e)
	}
	return cborEncMode.Marshal(envs)
}

// UnmarshalCBOR decodes an array of one-of envelopes.
func (ds *Decls) UnmarshalCBOR(data []byte) error {
	var envs []envelope
	if err := cbor.Unmarshal(data, &envs); err != nil {
		return err
	}
	out := make(Decls, 0, len(envs))
	for i, e := range envs {
		d, err := e.unwrap()
		if err != nil {
			return fmt.Errorf("decl %d: %w", i, err)
		}
		out = append(out, d)
	}
	*ds = out
	return nil
}

// MarshalUnit serializes a Unit to canonical CBOR bytes.
func MarshalUnit(u *Unit) ([]byte, error) {
	return cborEncMode.Marshal(u)
}

// UnmarshalUnit deserializes a Unit from CBOR bytes.
func UnmarshalUnit(data []byte) (*Unit, error) {
	var u Unit
	if err := cbor.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decl: unmarshal unit: %w", err)
	}
	return &u, nil
}
