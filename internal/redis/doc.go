// Package redis provides the Redis client and the request rate limiter.
//
// Rate-limit state lives in Redis so limits hold across instances and
// process restarts; everything else realtime-related is process-local.
package redis
