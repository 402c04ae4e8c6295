// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package actor hosts application handlers on top of socket handles.
//
// Each context kind owns one or more sockets and an actor value. Inbound
// messages reach the actor through its Handle method; outbound messages are
// queued on the context (Send, Publish, Request). Every context embeds
// *Parts, which provides the address, spawning, timers and the two-phase
// stop shared by all kinds.
//
// Optional hooks are discovered by interface assertion on the actor:
// Starter, Stopper, StreamStarter, StreamFinisher, ReadErrorHandler,
// WriteErrorHandler and WriteFinisher.
package actor
