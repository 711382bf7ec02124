// Package groupd implements the groupd HTTP service, which groups runs of
// consecutive NDJSON records that share a key.
//
// POST /v1/groups?key=user.id reads the request body one line at a time,
// resolves the value at the key path for each record, and returns every
// maximal run of equal keys as one group, either as a JSON envelope or,
// for clients accepting text/event-stream, as "group" events followed by
// an "end" event.
package groupd
