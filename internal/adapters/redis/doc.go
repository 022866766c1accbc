// Package redis stores tasks in Redis and provides the cross-process run lock.
package redis
