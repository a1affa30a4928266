// Package flatten inlines every subgraph instance of a graph into a single
// flat DAG of nodes. Inlined node names become dotted paths recording their
// original nesting (e.g. "infer_pipeline.sentiment"), and every data source
// that crossed a subgraph boundary is rewritten until it lands on either a
// node of the flat graph or a declared input of the root graph.
//
// Flattening never mutates its input; it returns a freshly built graph whose
// nodes are clones of the originals.
package flatten
