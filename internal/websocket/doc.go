// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package websocket pushes synchronization events to connected browsers.

A Hub owns the set of connected clients and fans every broadcast out to each
of them. Each Client runs two goroutines: readPump answers application level
pings and detects disconnects, writePump drains the client's send buffer and
keeps the connection alive with protocol pings.

Messages are JSON objects of the form:

	{"type": "backfill.completed", "data": {...}}

The type is the event topic the message was published on (see package
events); ping and pong are reserved for keepalive.

The hub is normally run under the supervisor tree:

	hub := websocket.NewHub()
	tree.AddMessagingService(services.NewWebSocketHubService(hub))

and fed by an events.Bridge, which calls BroadcastRaw for every event.

Slow clients whose send buffer is full are dropped rather than blocking the
broadcast loop.
*/
package websocket
