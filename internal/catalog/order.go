package catalog

import (
	"cmp"
	"slices"
	"strings"
)

// noBucketName is shown for entries without a priority tag.
const noBucketName = "NONE"

// Ordering sorts entries by (bucket, hardness, source). The bucket is the
// index of the first priority tag the entry carries. A missing bucket and a
// missing hardness both sort below every real value.
type Ordering struct {
	priority []string
}

// NewOrdering returns an Ordering over the given tag priority list.
func NewOrdering(priorityTags []string) Ordering {
	return Ordering{priority: slices.Clone(priorityTags)}
}

// Bucket returns the index of the first priority tag found in e's tags.
func (o Ordering) Bucket(e Entry) (int, bool) {
	for i, tag := range o.priority {
		if slices.Contains(e.Tags, tag) {
			return i, true
		}
	}

	return 0, false
}

// BucketName returns the priority tag that decides e's bucket, or "NONE".
func (o Ordering) BucketName(e Entry) string {
	i, ok := o.Bucket(e)
	if !ok {
		return noBucketName
	}

	return o.priority[i]
}

// Compare orders a before b when it returns a negative number.
func (o Ordering) Compare(a, b Entry) int {
	ab, aok := o.Bucket(a)
	bb, bok := o.Bucket(b)

	if c := compareOptional(ab, aok, bb, bok); c != 0 {
		return c
	}

	if c := compareOptionalPtr(a.Hardness, b.Hardness); c != 0 {
		return c
	}

	return strings.Compare(a.Source, b.Source)
}

// Sort sorts entries in place.
func (o Ordering) Sort(entries []Entry) {
	slices.SortStableFunc(entries, o.Compare)
}

// SortAlphabetical sorts entries in place by byte-wise source order.
func SortAlphabetical(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Source, b.Source)
	})
}

func compareOptionalPtr(a, b *int) int {
	var av, bv int
	if a != nil {
		av = *a
	}

	if b != nil {
		bv = *b
	}

	return compareOptional(av, a != nil, bv, b != nil)
}

// compareOptional sorts absent values first.
func compareOptional(a int, aok bool, b int, bok bool) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
