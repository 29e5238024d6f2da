package rcol

// ValidateReferences checks every decoded block that exposes chunk
// references and reports the ones pointing outside the container's
// chunk list. A null reference is an ordinary "no target" and is never
// flagged. The findings are returned and also appended to the
// container's diagnostics, mirroring how decode-stage problems are
// surfaced.
func ValidateReferences(c *Container) []Diagnostic {
	var found []Diagnostic
	total := c.NumChunks()
	for i := 0; i < total; i++ {
		ch := c.ChunkAt(i)
		refs, ok := ch.Block.(Referencer)
		if !ok {
			continue
		}
		for _, ref := range refs.References() {
			if ref.IsNull() {
				continue
			}
			if int(ref) >= total {
				found = append(found, Diagnostic{
					Chunk:   i,
					Tag:     ch.Tag,
					Kind:    DiagRefOutOfRange,
					Message: ref.String() + " points past the last chunk",
				})
			}
		}
	}
	c.Diagnostics = append(c.Diagnostics, found...)
	return found
}
