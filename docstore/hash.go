package docstore

import (
	"fmt"

	"github.com/minio/highwayhash"

	"github.com/docsight/docsight/schema"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// chunkID derives a stable row id from the chunk's origin and content, so
// re-indexing an unchanged file overwrites rather than duplicates.
func chunkID(doc schema.Document) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// the key is a compile-time constant of the right size
		panic(err)
	}
	_, _ = fmt.Fprintf(h, "%s|%d|%s", doc.Filename(), schema.GetInt(doc.Metadata, schema.KeyChunkID), doc.PageContent)
	return fmt.Sprintf("%s:%016x", doc.Filename(), h.Sum64())
}
