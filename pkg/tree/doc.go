// Package tree holds the in-memory content hierarchy: parent/child relationships,
// lazy subtree markers, and the local mutation primitives used by the coordinator.
// It performs no I/O.
package tree
