package internal

import (
	"sort"
	"strings"

	"github.com/metabridge/metabridge"
)

// Orderable is the view the sequencing helpers need over entities and
// relationships: the shared header plus named-property access.
type Orderable interface {
	Header() *metabridge.InstanceHeader
	Property(name string) metabridge.PropertyValue
}

// Comparator reports the relative order of two instances: negative when a
// sorts before b.
type Comparator[T Orderable] func(a, b T) int

// ComparatorFor builds the comparator for a sequencing order. The
// property-based orders need a sequencing property; without one they yield a
// nil comparator and the list stays in arrival order. The other orders
// ignore the property argument entirely.
func ComparatorFor[T Orderable](codec *AttributeCodec, order metabridge.SequencingOrder, property string) Comparator[T] {
	switch order {
	case metabridge.SequencingGUID:
		return func(a, b T) int {
			return strings.Compare(a.Header().ID.String(), b.Header().ID.String())
		}
	case metabridge.SequencingCreatedRecent:
		return func(a, b T) int {
			return b.Header().CreateTime.Compare(a.Header().CreateTime)
		}
	case metabridge.SequencingCreatedOldest:
		return func(a, b T) int {
			return a.Header().CreateTime.Compare(b.Header().CreateTime)
		}
	case metabridge.SequencingUpdatedRecent:
		return func(a, b T) int {
			return b.Header().UpdateTime.Compare(a.Header().UpdateTime)
		}
	case metabridge.SequencingUpdatedOldest:
		return func(a, b T) int {
			return a.Header().UpdateTime.Compare(b.Header().UpdateTime)
		}
	case metabridge.SequencingPropertyAsc:
		if property == "" {
			return nil
		}
		return func(a, b T) int {
			return codec.Compare(a.Property(property), b.Property(property))
		}
	case metabridge.SequencingPropertyDesc:
		if property == "" {
			return nil
		}
		return func(a, b T) int {
			return codec.Compare(b.Property(property), a.Property(property))
		}
	default:
		return nil
	}
}

// SortInstances stably sorts list in place; a nil comparator leaves it
// untouched.
func SortInstances[T Orderable](list []T, cmp Comparator[T]) {
	if cmp == nil {
		return
	}
	sort.SliceStable(list, func(i, j int) bool { return cmp(list[i], list[j]) < 0 })
}
