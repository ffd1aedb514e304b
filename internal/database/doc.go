// Copyright (c) AgentRelay Authors.
// Licensed under the MIT License.

/*
Package database provides GORM-based connection pool management with
health checks, pool statistics and transaction retry.

# Overview

PoolManager wraps the pool settings of GORM and database/sql in one
place: connection lifecycle, idle recycling and open-connection limits.
A background health check pings periodically and reports failures
through zap.

# Core types

  - PoolManager: owns the gorm.DB handle and the underlying sql.DB,
    exposing DB(), Ping(), Stats() and Close().
  - PoolConfig: idle/open limits, connection lifetime, idle timeout
    and health check interval.
  - PoolStats: JSON-friendly pool statistics.
  - TransactionFunc: transaction callback type.

# Capabilities

  - Pool tuning via MaxIdleConns/MaxOpenConns/ConnMaxLifetime.
  - Background PingContext health checks with connection gauges.
  - WithTransaction for single transactions, WithTransactionRetry with
    exponential backoff for deadlocks and serialization failures.
  - GetStats for structured pool runtime metrics.
*/
package database
