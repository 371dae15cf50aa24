// Package server hosts component trees as live sessions.
//
// A Session mounts a root component, expands every component node into a
// ComponentInstance with its own reactive owner (a child of its parent's
// owner, so context flows down the tree), and keeps the tree current:
// signal writes mark the reading instance dirty, dispatched callbacks run
// on the session loop, effects run after each render, and the resulting
// HTML is published to subscribers.
//
// Handler serves sessions over HTTP: the first GET renders the page
// server-side, and a WebSocket keeps it in sync afterwards.
//
//	h := server.NewHandler(func(r *http.Request) server.Component {
//	    return App()
//	}, server.HandlerConfig{})
//	go h.Run(ctx)
//	http.ListenAndServe(":8080", h)
package server
