// Package compose implements the docker-compose backend target. Each flat
// node becomes one service whose command carries the node's encoded
// descriptor, ordering is expressed with depends_on completion conditions,
// and a trailing synthesis service aggregates the graph's declared outputs.
package compose
