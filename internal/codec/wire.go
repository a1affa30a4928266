package codec

import (
	"fmt"

	"github.com/vk/pipegraph/internal/model"
)

// Wire shapes mirror the model with every field in a fixed position.
// Source kinds are tagged explicitly so the payload is self-describing.
const (
	kindNodeOutput = "node_output"
	kindGraphInput = "graph_input"
)

type wireSource struct {
	Kind   string `msgpack:"kind"`
	Node   string `msgpack:"node,omitempty"`
	Output string `msgpack:"output,omitempty"`
	Input  string `msgpack:"input,omitempty"`
}

type wireInput struct {
	Name   string     `msgpack:"name"`
	Type   string     `msgpack:"type"`
	Source wireSource `msgpack:"source"`
}

type wireOutput struct {
	Name string `msgpack:"name"`
	Type string `msgpack:"type"`
}

type wireEntrypoint struct {
	Version string `msgpack:"version"`
	Handler string `msgpack:"handler"`
	Runtime string `msgpack:"runtime"`
	CodeURL string `msgpack:"codeurl,omitempty"`
	Image   string `msgpack:"image,omitempty"`
}

type wireFramework struct {
	Name   string         `msgpack:"name"`
	Config map[string]any `msgpack:"config,omitempty"`
}

type wireNode struct {
	Name       string         `msgpack:"name"`
	Entrypoint wireEntrypoint `msgpack:"entrypoint"`
	Framework  *wireFramework `msgpack:"framework,omitempty"`
	Config     map[string]any `msgpack:"config,omitempty"`
	Inputs     []wireInput    `msgpack:"inputs,omitempty"`
	Outputs    []wireOutput   `msgpack:"outputs,omitempty"`
}

type wireGraphInput struct {
	Name string `msgpack:"name"`
	Type string `msgpack:"type"`
}

type wireGraphOutput struct {
	Name   string     `msgpack:"name"`
	Type   string     `msgpack:"type"`
	Source wireSource `msgpack:"source"`
}

func toWireSource(entity string, src model.DataSource) (wireSource, error) {
	switch s := src.(type) {
	case model.NodeOutput:
		return wireSource{Kind: kindNodeOutput, Node: s.Node, Output: s.Output}, nil
	case model.GraphInputRef:
		return wireSource{Kind: kindGraphInput, Input: s.Input}, nil
	case nil:
		return wireSource{}, &EncodingError{Entity: entity, Err: fmt.Errorf("missing data source")}
	default:
		// SubgraphOutput cannot appear in a flattened graph.
		return wireSource{}, &EncodingError{Entity: entity, Err: fmt.Errorf("unresolved data source %s", src.String())}
	}
}

func fromWireSource(entity string, src wireSource) (model.DataSource, error) {
	switch src.Kind {
	case kindNodeOutput:
		return model.NodeOutput{Node: src.Node, Output: src.Output}, nil
	case kindGraphInput:
		return model.GraphInputRef{Input: src.Input}, nil
	default:
		return nil, &EncodingError{Entity: entity, Err: fmt.Errorf("unknown source kind %q", src.Kind)}
	}
}

func toWireNode(n *model.Node) (*wireNode, error) {
	wire := &wireNode{
		Name: n.Name,
		Entrypoint: wireEntrypoint{
			Version: n.Entrypoint.Version,
			Handler: n.Entrypoint.Handler,
			Runtime: n.Entrypoint.Runtime,
			CodeURL: n.Entrypoint.CodeURL,
			Image:   n.Entrypoint.Image,
		},
		Config: n.Config,
	}
	if n.Framework != nil {
		wire.Framework = &wireFramework{Name: n.Framework.Name, Config: n.Framework.Config}
	}
	for _, in := range n.Inputs {
		src, err := toWireSource(fmt.Sprintf("node %q input %q", n.Name, in.Name), in.Source)
		if err != nil {
			return nil, err
		}
		wire.Inputs = append(wire.Inputs, wireInput{Name: in.Name, Type: string(in.Type), Source: src})
	}
	for _, out := range n.Outputs {
		wire.Outputs = append(wire.Outputs, wireOutput{Name: out.Name, Type: string(out.Type)})
	}
	return wire, nil
}

func fromWireNode(wire *wireNode) (*model.Node, error) {
	n := &model.Node{
		Name: wire.Name,
		Entrypoint: model.Entrypoint{
			Version: wire.Entrypoint.Version,
			Handler: wire.Entrypoint.Handler,
			Runtime: wire.Entrypoint.Runtime,
			CodeURL: wire.Entrypoint.CodeURL,
			Image:   wire.Entrypoint.Image,
		},
		Config: wire.Config,
	}
	if wire.Framework != nil {
		n.Framework = &model.Framework{Name: wire.Framework.Name, Config: wire.Framework.Config}
	}
	for _, in := range wire.Inputs {
		src, err := fromWireSource(fmt.Sprintf("node %q input %q", wire.Name, in.Name), in.Source)
		if err != nil {
			return nil, err
		}
		n.Inputs = append(n.Inputs, model.Input{Name: in.Name, Type: model.IOType(in.Type), Source: src})
	}
	for _, out := range wire.Outputs {
		n.Outputs = append(n.Outputs, model.Output{Name: out.Name, Type: model.IOType(out.Type)})
	}
	return n, nil
}
