package metabridge

import (
	"strings"
)

// idSeparator joins the generation tag and the vendor-native identifier in
// the serialized form of an InstanceID. The vendor does not guarantee the
// separator is absent from raw identifiers, so parsing splits at the FIRST
// occurrence and treats everything after it as the base; identifiers whose
// base legitimately starts before a separator cannot be distinguished from
// tagged ones. Vendor GUIDs are UUID-shaped in practice, which keeps the
// encoding unambiguous for real data.
const idSeparator = "!"

// InstanceID identifies a canonical instance. Base is the vendor-native
// identifier; Tag is the generation prefix for instances projected out of a
// vendor instance under a prefixed mapping, and empty for native instances.
type InstanceID struct {
	Base string `json:"base"`
	Tag  string `json:"tag,omitempty"`
}

// NewInstanceID builds an untagged identifier.
func NewInstanceID(base string) InstanceID {
	return InstanceID{Base: base}
}

// GeneratedInstanceID builds a tagged identifier for a generated instance.
func GeneratedInstanceID(tag, base string) InstanceID {
	return InstanceID{Base: base, Tag: tag}
}

// IsGenerated reports whether the identifier carries a generation tag.
func (id InstanceID) IsGenerated() bool { return id.Tag != "" }

// IsZero reports whether the identifier is empty.
func (id InstanceID) IsZero() bool { return id.Base == "" && id.Tag == "" }

// String serializes the identifier. Untagged identifiers serialize to their
// bare base so that native GUIDs round-trip byte-for-byte.
func (id InstanceID) String() string {
	if id.Tag == "" {
		return id.Base
	}
	return id.Tag + idSeparator + id.Base
}

// ParseInstanceID splits a serialized identifier back into tag and base.
func ParseInstanceID(s string) InstanceID {
	if i := strings.Index(s, idSeparator); i >= 0 {
		return InstanceID{Tag: s[:i], Base: s[i+len(idSeparator):]}
	}
	return InstanceID{Base: s}
}
