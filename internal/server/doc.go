/*
Package server manages HTTP/HTTPS server lifecycle: non-blocking startup,
graceful shutdown and system signal handling.

# Overview

Manager wraps net/http.Server with a unified listen, serve, shutdown and
error propagation flow. It supports plain HTTP and TLS startup, handles
SIGINT/SIGTERM, and drains in-flight requests within a configured timeout.

# Core types

  - Manager — server manager holding the http.Server, net.Listener and an
    asynchronous error channel; Start/StartTLS/Shutdown/WaitForShutdown
    lifecycle methods.
  - Config — listen address, read/write/idle timeouts, header size limit and
    shutdown timeout.

# Capabilities

  - Non-blocking startup: Start/StartTLS serve from a background goroutine.
  - Graceful shutdown: Shutdown drains requests within the configured timeout.
  - Signal handling: WaitForShutdown listens for SIGINT/SIGTERM and triggers
    shutdown automatically.
  - Error propagation: Errors() exposes asynchronous serve failures.
  - Status queries: IsRunning/Addr report run state and listen address.
*/
package server
