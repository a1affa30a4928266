// Package codec produces the self-contained binary descriptors handed to
// out-of-process workers: one per node, plus one for the flat graph's
// declared input list and one for its declared output list.
//
// Encoding is canonical: fields are written in a fixed order and map keys
// are sorted, so the same logical node always encodes to the same bytes.
// That determinism is what allows image and task identity to be derived from
// payload content (see Digest) and reused as a build-cache key.
package codec
