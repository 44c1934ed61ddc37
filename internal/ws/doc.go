// Package ws implements the WebSocket live feed for huntwatch-server.
//
// Hub broadcasts the combined live view (sightings + players, same schema as
// the REST lists) to every connected client on a configurable interval, and
// immediately on connect. Message format:
//
//	{
//	  "event": "feed",
//	  "data":  { "sightings": [...], "players": [...], "generated_at": "..." }
//	}
//
// Slow clients whose send buffer fills are disconnected. The endpoint is
// mounted at /ws/feed by the server.
package ws
