// Package blobstore stores photo bytes and hands back public URLs. Metadata
// stays in Postgres; only the blobs live here.
package blobstore

import "context"

// Store is the blob persistence contract.
type Store interface {
	// Put stores data under path and returns the public URL it is served
	// from. Paths use forward slashes regardless of platform.
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// ObjectPath builds the canonical blob path for an upload:
// {namespace}/{userName}/{timestamp}-{fileName}.
func ObjectPath(namespace, userName, timestamp, fileName string) string {
	return namespace + "/" + userName + "/" + timestamp + "-" + fileName
}
