package rag

// Chunk splits items into consecutive slices of at most size elements,
// preserving order. It is the single batching utility used by every
// producer of embedding calls, so the BatchSize quota is enforced in one
// place. The returned slices share backing storage with items.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = BatchSize
	}
	if len(items) == 0 {
		return nil
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
