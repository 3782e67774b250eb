// Package chunker splits texts into batches bounded by item count and by
// serialized request size.
package chunker

// DefaultMaxItems is the default number of texts per batch.
const DefaultMaxItems = 125

// Limits bounds a single batch.
type Limits struct {
	// MaxItems caps the number of texts. Zero or less uses DefaultMaxItems.
	MaxItems int
	// MaxBytes caps the serialized request size. Zero or less disables the
	// byte bound.
	MaxBytes int
}

// Batch is a contiguous run of the input starting at Offset.
type Batch struct {
	Offset int
	Texts  []string
}

// Len returns the number of texts in the batch.
func (b Batch) Len() int { return len(b.Texts) }

// Split partitions texts into batches of at most limits.MaxItems texts.
// measure returns the serialized size of a candidate batch; a batch larger
// than limits.MaxBytes is halved until every part fits or holds a single
// text. Single-text batches are returned as-is even when oversized.
// Batches are returned in input order and cover the input exactly once.
func Split(texts []string, limits Limits, measure func([]string) int) []Batch {
	if len(texts) == 0 {
		return nil
	}

	maxItems := limits.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	var batches []Batch
	for start := 0; start < len(texts); start += maxItems {
		end := start + maxItems
		if end > len(texts) {
			end = len(texts)
		}
		batches = appendFitting(batches, Batch{Offset: start, Texts: texts[start:end]}, limits.MaxBytes, measure)
	}

	return batches
}

// appendFitting appends b, halving it while it exceeds maxBytes.
// Each halving shrinks the batch, so the recursion depth is at most
// log2(len(b.Texts)).
func appendFitting(out []Batch, b Batch, maxBytes int, measure func([]string) int) []Batch {
	if maxBytes <= 0 || measure == nil || b.Len() <= 1 || measure(b.Texts) <= maxBytes {
		return append(out, b)
	}

	mid := b.Len() / 2
	if mid < 1 {
		mid = 1
	}

	out = appendFitting(out, Batch{Offset: b.Offset, Texts: b.Texts[:mid]}, maxBytes, measure)
	return appendFitting(out, Batch{Offset: b.Offset + mid, Texts: b.Texts[mid:]}, maxBytes, measure)
}
