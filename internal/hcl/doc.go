// Package hcl loads pipeline definition documents written in HCL and
// translates them into the format-agnostic model. A document contains one or
// more `graph "<name>" { ... }` blocks; inside a graph, `node`, `subgraph`,
// `input` and `output` blocks describe the entities of the model, and data
// sources are written as bare references such as `node.clean.return`,
// `subgraph.infer_pipeline.return` or `input.corpus`.
//
// The loader performs no semantic validation beyond what the syntax
// requires; structural validation belongs to the model package.
package hcl
