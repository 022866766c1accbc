// Package memory provides an in-process task store for tests and ephemeral sessions.
package memory
