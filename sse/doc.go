// Package sse writes Server-Sent Events onto a single HTTP response.
//
// A Stream owns one response writer: it sets the event-stream headers,
// lifts the server write deadline, and serializes Send and keep-alive
// comments so they may be issued from different goroutines.
//
// # Usage
//
//	stream, err := sse.Open(w)
//	if err != nil {
//	    return err
//	}
//	stop := stream.KeepAlive(ctx, 15*time.Second)
//	defer stop()
//	_ = stream.Send("group", payload)
package sse
