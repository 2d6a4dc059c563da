/*
Package ports defines the driven ports (interfaces) of the outline editor.

These interfaces decouple the coordinator and the reference authority from external
implementations, allowing them to work with various transports and storage backends.

# Key Interfaces

  - Transport: Issues a single request to the remote authority (HTTP client, in-process handler, fakes).
  - ContentStore: Persists the authority's nodes (memory, Redis).
  - DistributedLocker: Serializes writes to a parent across authority replicas.
*/
package ports
