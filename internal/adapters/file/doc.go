// Package file stores tasks in a single JSON document on the local filesystem.
package file
