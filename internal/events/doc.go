// Package events streams catalog events to browsers over websockets.
//
// Hub implements catalog.Subscriber. Events are queued without blocking and
// fanned out by Run; a client whose send buffer is full is disconnected.
package events
