// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging and metrics layer shared by the loop, the socket
// adapters and the example programs.
//
// Provides:
//   - YAML configuration with defaults and validation
//   - zap logger construction from configuration
//   - Prometheus collectors for per-socket message traffic
package control
