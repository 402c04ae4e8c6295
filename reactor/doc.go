// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the edge-triggered readiness reactor that backs
// the cooperative event loop: epoll on Linux, with an eventfd used to
// interrupt a blocked wait from other goroutines.
package reactor
