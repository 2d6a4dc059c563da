/*
Package domain contains the core domain models of the outline editor.

It defines the content hierarchy (course, chapter, sequential, vertical, component),
the raw per-node attributes reported by the remote authority, the derived visibility
states, and the bookkeeping for in-flight structural operations. This package is kept
pure and free of I/O so every other package can depend on it.

# Key Entities

  - ContentNode: A node of the outline with its ordered children.
  - NodeAttributes: Immutable-per-fetch value object with the server-reported fields.
  - VisibilityState: Derived publish/visibility status (live, scheduled, staffOnly...).
  - PendingOperation: Snapshot of a structural operation waiting for its remote response.
*/
package domain
