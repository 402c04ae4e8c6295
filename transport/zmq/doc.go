// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package zmq implements api.Socket over libzmq through github.com/pebbe/zmq4
// and opens ready-to-split socket.Handle values with Connect and Bind.
package zmq
