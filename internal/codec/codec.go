package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vk/pipegraph/internal/model"
)

// EncodingError reports a payload that could not be encoded or decoded.
type EncodingError struct {
	Entity string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.Entity, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// EncodeNode serializes a node into its canonical byte form. The node's
// sources must already be fully resolved (NodeOutput or GraphInputRef);
// encoding a node that still references a subgraph is an error.
func EncodeNode(n *model.Node) ([]byte, error) {
	wire, err := toWireNode(n)
	if err != nil {
		return nil, err
	}
	return encode(fmt.Sprintf("node %q", n.Name), wire)
}

// DecodeNode is the exact inverse of EncodeNode.
func DecodeNode(payload []byte) (*model.Node, error) {
	var wire wireNode
	if err := decode("node", payload, &wire); err != nil {
		return nil, err
	}
	return fromWireNode(&wire)
}

// EncodeGraphInputs serializes the flat graph's declared input list. This is
// the manifest a worker uses to locate caller-provided values.
func EncodeGraphInputs(inputs []model.GraphInput) ([]byte, error) {
	wire := make([]wireGraphInput, len(inputs))
	for i, in := range inputs {
		wire[i] = wireGraphInput{Name: in.Name, Type: string(in.Type)}
	}
	return encode("graph inputs", wire)
}

// DecodeGraphInputs is the exact inverse of EncodeGraphInputs.
func DecodeGraphInputs(payload []byte) ([]model.GraphInput, error) {
	var wire []wireGraphInput
	if err := decode("graph inputs", payload, &wire); err != nil {
		return nil, err
	}
	inputs := make([]model.GraphInput, len(wire))
	for i, in := range wire {
		inputs[i] = model.GraphInput{Name: in.Name, Type: model.IOType(in.Type)}
	}
	return inputs, nil
}

// EncodeGraphOutputs serializes the flat graph's declared output list with
// each output's resolved producer. This is the synthesis unit's payload.
func EncodeGraphOutputs(outputs []model.GraphOutput) ([]byte, error) {
	wire := make([]wireGraphOutput, len(outputs))
	for i, out := range outputs {
		src, err := toWireSource(fmt.Sprintf("graph output %q", out.Name), out.Source)
		if err != nil {
			return nil, err
		}
		wire[i] = wireGraphOutput{Name: out.Name, Type: string(out.Type), Source: src}
	}
	return encode("graph outputs", wire)
}

// DecodeGraphOutputs is the exact inverse of EncodeGraphOutputs.
func DecodeGraphOutputs(payload []byte) ([]model.GraphOutput, error) {
	var wire []wireGraphOutput
	if err := decode("graph outputs", payload, &wire); err != nil {
		return nil, err
	}
	outputs := make([]model.GraphOutput, len(wire))
	for i, out := range wire {
		src, err := fromWireSource(fmt.Sprintf("graph output %q", out.Name), out.Source)
		if err != nil {
			return nil, err
		}
		outputs[i] = model.GraphOutput{Name: out.Name, Type: model.IOType(out.Type), Source: src}
	}
	return outputs, nil
}

// Digest returns the hex sha256 of an encoded payload. Because encoding is
// canonical, the digest identifies the logical content and is stable across
// processes and runs.
func Digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func encode(entity string, v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, &EncodingError{Entity: entity, Err: err}
	}
	return buf.Bytes(), nil
}

func decode(entity string, payload []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(v); err != nil {
		return &EncodingError{Entity: entity, Err: err}
	}
	return nil
}
