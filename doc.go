/*
Package outline keeps a course outline in sync with a remote content authority.

An outline is an ordered tree (course > section > subsection > unit > component) whose
structure is edited locally and confirmed remotely. The Editor applies structural edits
optimistically, sends the matching requests to the authority, and rolls back to the last
confirmed order when a request fails. Visibility states (live, scheduled, unscheduled,
needs attention, staff only, gated) are derived locally from node attributes.

# Concept

The Editor owns three collaborators:

  - the content tree, the single in-memory copy of the outline;
  - the coordinator, the only component allowed to mutate the authority;
  - the notifier, which reports activity indicators and user-facing errors.

At most one operation is in flight per node. A conflicting gesture fails fast with
domain.ErrOperationInProgress; it is never queued.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/outline"
		"github.com/aretw0/outline/pkg/adapters/http"
	)

	func main() {
		ctx := context.Background()
		ed, err := outline.Open(ctx, "course-v1:demo",
			outline.WithTransport(http.NewClient("http://localhost:8080")),
		)
		if err != nil {
			log.Fatal(err)
		}

		ed.OnError(func(kind domain.OperationKind, message string, err error) {
			log.Printf("%s failed: %s", kind, message)
		})

		op, err := ed.Move(ctx, "sequential@1", "chapter@2", 0)
		if err != nil {
			log.Fatal(err) // rejected before any request, e.g. another operation is in flight
		}
		if err := op.Wait(ctx); err != nil {
			log.Printf("move rolled back: %v", err)
		}
	}
*/
package outline
