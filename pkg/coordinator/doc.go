/*
Package coordinator sequences remote-mutating operations against the content tree.

Structural gestures (reorder, move, delete) are applied optimistically and rolled back
on failure. Operations whose result is assigned remotely (create, duplicate) or whose
effects are derived remotely (publish, discard, staff lock) apply nothing up front and
re-fetch after success. Every gesture returns an Operation future; a gesture touching
a node that already has an operation in flight fails fast with domain.ErrOperationInProgress.

Cross-parent moves are sent in two steps, destination first:

	PATCH /xblock/{to}   {"children": [...new destination order...]}
	PATCH /xblock/{from} {"children": [...new source order...]}

The second request is only issued once the first succeeded.
*/
package coordinator
