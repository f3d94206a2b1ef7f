package datasource

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Signature is the canonical cache key for a data request. It is built from
// the address, schema and transform only, so two declarations that differ in
// field order or in their detail convention share a signature.
type Signature string

type signaturePayload struct {
	Address   string         `json:"address"`
	Schema    string         `json:"schema"`
	Transform map[string]any `json:"transform,omitempty"`
}

// SignatureOf computes the signature for decl. encoding/json writes map keys
// in sorted order at every depth, which makes the transform order-insensitive.
func SignatureOf(decl Declaration) Signature {
	payload := signaturePayload{
		Address:   strings.TrimSpace(decl.Address),
		Schema:    strings.TrimSpace(decl.Schema),
		Transform: decl.Transform,
	}
	if len(payload.Transform) == 0 {
		payload.Transform = nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// fmt also prints maps in key order.
		return Signature(fmt.Sprintf("%s|%s|%v", payload.Address, payload.Schema, payload.Transform))
	}
	return Signature(data)
}

func (s Signature) String() string {
	return string(s)
}
