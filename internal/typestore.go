package internal

import (
	"sync"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
)

// VendorEnd names the physical end of a vendor relationship.
type VendorEnd string

const (
	VendorEndOne       VendorEnd = "ONE"
	VendorEndTwo       VendorEnd = "TWO"
	VendorEndUndefined VendorEnd = "UNDEFINED"
)

// EndpointPeer describes one canonical relationship end inside an
// EndpointCorrespondence: the generation prefix of the entity occupying the
// end, the physical vendor end it corresponds to, and the relationship
// attribute under which assignments for this end appear on that entity.
type EndpointPeer struct {
	Prefix          string
	VendorEnd       VendorEnd
	VendorAttribute string
}

// EndpointCorrespondence captures how one vendor relationship type maps onto
// a canonical relationship's two ends. For generated relationships (Prefix
// non-empty) VendorType is the vendor ENTITY type both ends project from,
// and no vendor-side relationship exists at all.
type EndpointCorrespondence struct {
	VendorType    string
	CanonicalType string
	Prefix        string
	One           EndpointPeer
	Two           EndpointPeer
}

// Generated reports whether this mapping describes a relationship with no
// vendor-side representation.
func (ec *EndpointCorrespondence) Generated() bool { return ec.Prefix != "" }

// Orient resolves which canonical end "self" occupies, given the
// relationship attribute the assignment appeared under and the generation
// prefix self is being translated with. ok is false when neither end
// matches; the caller decides whether that means a skip or a malformed-ends
// failure.
func (ec *EndpointCorrespondence) Orient(attribute, selfPrefix string) (self, related EndpointPeer, selfIsOne, ok bool) {
	if ec.One.VendorAttribute == attribute && ec.One.Prefix == selfPrefix {
		return ec.One, ec.Two, true, true
	}
	if ec.Two.VendorAttribute == attribute && ec.Two.Prefix == selfPrefix {
		return ec.Two, ec.One, false, true
	}
	return EndpointPeer{}, EndpointPeer{}, false, false
}

// TypeCorrespondence is one declarative mapping between a canonical type and
// a (vendor type, prefix) pair, with its scoped attribute-name maps.
type TypeCorrespondence struct {
	CanonicalName string
	VendorName    string
	Prefix        string

	canonicalToVendor map[string]string
	vendorToCanonical map[string]string
	Endpoints         *EndpointCorrespondence
}

// NewTypeCorrespondence builds a correspondence with the given attribute
// pairs (canonical name to vendor name).
func NewTypeCorrespondence(canonicalName, vendorName, prefix string, attributes map[string]string) *TypeCorrespondence {
	tc := &TypeCorrespondence{
		CanonicalName:     canonicalName,
		VendorName:        vendorName,
		Prefix:            prefix,
		canonicalToVendor: make(map[string]string, len(attributes)),
		vendorToCanonical: make(map[string]string, len(attributes)),
	}
	for canonical, vendor := range attributes {
		tc.canonicalToVendor[canonical] = vendor
		tc.vendorToCanonical[vendor] = canonical
	}
	return tc
}

// VendorAttribute resolves a canonical attribute name through this
// correspondence only, with no identity fallback.
func (tc *TypeCorrespondence) VendorAttribute(canonical string) (string, bool) {
	vendor, ok := tc.canonicalToVendor[canonical]
	return vendor, ok
}

// CanonicalAttribute resolves a vendor attribute name through this
// correspondence only, with no identity fallback.
func (tc *TypeCorrespondence) CanonicalAttribute(vendor string) (string, bool) {
	canonical, ok := tc.vendorToCanonical[vendor]
	return canonical, ok
}

// TypeStore is the declarative registry of type correspondences plus the
// record of every canonical type definition the adapter has processed.
// Correspondences are loaded once at startup; Register and
// RegisterUnimplemented append type records at runtime under the lock.
type TypeStore struct {
	mu sync.RWMutex

	// byCanonical and byVendor index correspondences by type name, then by
	// prefix ("" is the default, non-generated mapping).
	byCanonical map[string]map[string]*TypeCorrespondence
	byVendor    map[string]map[string]*TypeCorrespondence

	// endpoints indexes relationship endpoint mappings by vendor type name,
	// then prefix.
	endpoints map[string]map[string]*EndpointCorrespondence

	// reserved holds canonical type names deliberately left unmapped.
	reserved map[string]struct{}

	implementedByName   map[string]metabridge.TypeDef
	implementedByGUID   map[string]metabridge.TypeDef
	unimplementedByName map[string]metabridge.TypeDef
	unimplementedByGUID map[string]metabridge.TypeDef

	// attributesByType holds each known canonical type's full attribute set,
	// inherited attributes included.
	attributesByType map[string]map[string]metabridge.AttributeDef
}

// NewTypeStore creates an empty store.
func NewTypeStore() *TypeStore {
	return &TypeStore{
		byCanonical:         make(map[string]map[string]*TypeCorrespondence),
		byVendor:            make(map[string]map[string]*TypeCorrespondence),
		endpoints:           make(map[string]map[string]*EndpointCorrespondence),
		reserved:            make(map[string]struct{}),
		implementedByName:   make(map[string]metabridge.TypeDef),
		implementedByGUID:   make(map[string]metabridge.TypeDef),
		unimplementedByName: make(map[string]metabridge.TypeDef),
		unimplementedByGUID: make(map[string]metabridge.TypeDef),
		attributesByType:    make(map[string]map[string]metabridge.AttributeDef),
	}
}

// AddCorrespondence records one declarative type mapping. A (vendor, prefix)
// pair maps to exactly one canonical type; a later duplicate wins and is
// logged, matching the load-time last-entry-wins behavior of the artifact.
func (s *TypeStore) AddCorrespondence(tc *TypeCorrespondence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if byPrefix, ok := s.byVendor[tc.VendorName]; ok {
		if existing, ok := byPrefix[tc.Prefix]; ok && existing.CanonicalName != tc.CanonicalName {
			zap.S().Warnw("duplicate vendor type mapping, replacing",
				"vendor", tc.VendorName, "prefix", tc.Prefix,
				"previous", existing.CanonicalName, "canonical", tc.CanonicalName)
		}
	}

	if s.byCanonical[tc.CanonicalName] == nil {
		s.byCanonical[tc.CanonicalName] = make(map[string]*TypeCorrespondence)
	}
	s.byCanonical[tc.CanonicalName][tc.Prefix] = tc

	if s.byVendor[tc.VendorName] == nil {
		s.byVendor[tc.VendorName] = make(map[string]*TypeCorrespondence)
	}
	s.byVendor[tc.VendorName][tc.Prefix] = tc

	if tc.Endpoints != nil {
		s.addEndpointsLocked(tc.Endpoints)
	}
}

// AddGeneratedCorrespondence records a generated-relationship mapping. It is
// indexed by canonical name and by endpoint lookup only: the (vendor entity,
// prefix) pair stays bound to the entity projection, not to the synthesized
// relationship.
func (s *TypeStore) AddGeneratedCorrespondence(tc *TypeCorrespondence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byCanonical[tc.CanonicalName] == nil {
		s.byCanonical[tc.CanonicalName] = make(map[string]*TypeCorrespondence)
	}
	s.byCanonical[tc.CanonicalName][tc.Prefix] = tc

	if tc.Endpoints != nil {
		s.addEndpointsLocked(tc.Endpoints)
	}
}

func (s *TypeStore) addEndpointsLocked(ec *EndpointCorrespondence) {
	if s.endpoints[ec.VendorType] == nil {
		s.endpoints[ec.VendorType] = make(map[string]*EndpointCorrespondence)
	}
	s.endpoints[ec.VendorType][ec.Prefix] = ec
}

// AddReserved marks a canonical type name as deliberately unmapped. Reserved
// names never fall back to identity mapping.
func (s *TypeStore) AddReserved(canonicalName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved[canonicalName] = struct{}{}
}

// IsReserved reports whether the canonical name is deliberately unmapped.
func (s *TypeStore) IsReserved(canonicalName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.reserved[canonicalName]
	return ok
}

// IsMapped reports whether the canonical type has any declarative mapping.
func (s *TypeStore) IsMapped(canonicalName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCanonical[canonicalName]) > 0
}

// VendorTypeName resolves the vendor type for a (canonical type, prefix)
// pair. Canonical types with no mapping fall back to identity when they are
// known implemented types and not reserved; otherwise "".
func (s *TypeStore) VendorTypeName(canonicalName, prefix string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if byPrefix, ok := s.byCanonical[canonicalName]; ok {
		if tc, ok := byPrefix[prefix]; ok {
			return tc.VendorName
		}
		return ""
	}
	if _, reserved := s.reserved[canonicalName]; reserved {
		return ""
	}
	if prefix == "" {
		if _, ok := s.implementedByName[canonicalName]; ok {
			return canonicalName
		}
	}
	return ""
}

// CanonicalTypeName resolves the canonical type for a (vendor type, prefix)
// pair, with the reverse identity fallback.
func (s *TypeStore) CanonicalTypeName(vendorName, prefix string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if byPrefix, ok := s.byVendor[vendorName]; ok {
		if tc, ok := byPrefix[prefix]; ok {
			return tc.CanonicalName
		}
		return ""
	}
	if prefix == "" {
		if _, ok := s.implementedByName[vendorName]; ok {
			if _, reserved := s.reserved[vendorName]; !reserved {
				return vendorName
			}
		}
	}
	return ""
}

// AllVendorTypeNames returns every (prefix, vendor type) pair the canonical
// type maps to. The identity fallback yields a single ""-prefixed entry.
func (s *TypeStore) AllVendorTypeNames(canonicalName string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	if byPrefix, ok := s.byCanonical[canonicalName]; ok {
		for prefix, tc := range byPrefix {
			out[prefix] = tc.VendorName
		}
		return out
	}
	if _, reserved := s.reserved[canonicalName]; reserved {
		return out
	}
	if _, ok := s.implementedByName[canonicalName]; ok {
		out[""] = canonicalName
	}
	return out
}

// PrefixesForVendorType returns every generation prefix under which the
// vendor type projects to a canonical type. Identity-mapped types yield the
// single default prefix.
func (s *TypeStore) PrefixesForVendorType(vendorName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if byPrefix, ok := s.byVendor[vendorName]; ok {
		prefixes := make([]string, 0, len(byPrefix))
		for prefix := range byPrefix {
			prefixes = append(prefixes, prefix)
		}
		return prefixes
	}
	if _, ok := s.implementedByName[vendorName]; ok {
		return []string{""}
	}
	return nil
}

// VendorAttributeName resolves a canonical attribute to its vendor name,
// scoped to the (canonical type, prefix) pair. Attributes absent from the
// correspondence fall back to identity when the canonical type is known to
// carry an attribute of that name.
func (s *TypeStore) VendorAttributeName(canonicalType, prefix, attribute string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if byPrefix, ok := s.byCanonical[canonicalType]; ok {
		if tc, ok := byPrefix[prefix]; ok {
			if vendor, ok := tc.canonicalToVendor[attribute]; ok {
				return vendor, true
			}
		}
	}
	if attrs, ok := s.attributesByType[canonicalType]; ok {
		if _, ok := attrs[attribute]; ok {
			return attribute, true
		}
	}
	return "", false
}

// CanonicalAttributeName resolves a vendor attribute to its canonical name,
// scoped to the (canonical type, prefix) pair, with the same identity
// fallback in reverse.
func (s *TypeStore) CanonicalAttributeName(canonicalType, prefix, attribute string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if byPrefix, ok := s.byCanonical[canonicalType]; ok {
		if tc, ok := byPrefix[prefix]; ok {
			if canonical, ok := tc.vendorToCanonical[attribute]; ok {
				return canonical, true
			}
		}
	}
	if attrs, ok := s.attributesByType[canonicalType]; ok {
		if _, ok := attrs[attribute]; ok {
			return attribute, true
		}
	}
	return "", false
}

// Correspondence returns the declarative mapping for a (canonical type,
// prefix) pair, or nil when the type relies on identity fallback.
func (s *TypeStore) Correspondence(canonicalName, prefix string) *TypeCorrespondence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byCanonical[canonicalName][prefix]
}

// VendorCorrespondence returns the declarative mapping for a (vendor type,
// prefix) pair, or nil.
func (s *TypeStore) VendorCorrespondence(vendorName, prefix string) *TypeCorrespondence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byVendor[vendorName][prefix]
}

// EndpointMapping returns the endpoint correspondence for a vendor
// relationship type under the given prefix, or nil.
func (s *TypeStore) EndpointMapping(vendorType, prefix string) *EndpointCorrespondence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoints[vendorType][prefix]
}

// EndpointMappingsFor returns every prefix variant of the endpoint
// correspondences registered for a vendor type.
func (s *TypeStore) EndpointMappingsFor(vendorType string) []*EndpointCorrespondence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPrefix := s.endpoints[vendorType]
	out := make([]*EndpointCorrespondence, 0, len(byPrefix))
	for _, ec := range byPrefix {
		out = append(out, ec)
	}
	return out
}

// GeneratedMappingsForEntityType returns the generated-relationship mappings
// whose vendor entity type matches; these relationships exist only as
// projections of that one entity.
func (s *TypeStore) GeneratedMappingsForEntityType(vendorEntityType string) []*EndpointCorrespondence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*EndpointCorrespondence
	for _, ec := range s.endpoints[vendorEntityType] {
		if ec.Generated() {
			out = append(out, ec)
		}
	}
	return out
}

// GeneratedMappingForPrefix finds the generated-relationship mapping that
// owns a generation prefix, or nil. Prefixes are unique across the artifact.
func (s *TypeStore) GeneratedMappingForPrefix(prefix string) *EndpointCorrespondence {
	if prefix == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, byPrefix := range s.endpoints {
		if ec, ok := byPrefix[prefix]; ok && ec.Generated() {
			return ec
		}
	}
	return nil
}

// Register records a canonical type definition as implemented and indexes
// its full attribute set. Registering the same definition again is a no-op
// rewrite: the attribute map is rebuilt identically.
func (s *TypeStore) Register(def metabridge.TypeDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	header := def.TypeDefHeaderRef()
	s.implementedByName[header.Name] = def
	if header.GUID != "" {
		s.implementedByGUID[header.GUID] = def
	}
	delete(s.unimplementedByName, header.Name)
	if header.GUID != "" {
		delete(s.unimplementedByGUID, header.GUID)
	}
	s.attributesByType[header.Name] = s.resolveAttributesLocked(def, nil)
}

// RegisterUnimplemented records a type the vendor cannot represent. The
// record is kept so supertype resolution and identity checks still succeed;
// only instance-level operations on the type fail.
func (s *TypeStore) RegisterUnimplemented(def metabridge.TypeDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	header := def.TypeDefHeaderRef()
	if _, ok := s.implementedByName[header.Name]; ok {
		return
	}
	s.unimplementedByName[header.Name] = def
	if header.GUID != "" {
		s.unimplementedByGUID[header.GUID] = def
	}
	s.attributesByType[header.Name] = s.resolveAttributesLocked(def, nil)
}

// resolveAttributesLocked walks the supertype chain collecting the full
// attribute set. A missing supertype record terminates the walk. seen guards
// against supertype cycles in malformed archives.
func (s *TypeStore) resolveAttributesLocked(def metabridge.TypeDef, seen map[string]struct{}) map[string]metabridge.AttributeDef {
	if seen == nil {
		seen = make(map[string]struct{})
	}
	header := def.TypeDefHeaderRef()
	if _, ok := seen[header.Name]; ok {
		return nil
	}
	seen[header.Name] = struct{}{}

	attrs := make(map[string]metabridge.AttributeDef)

	var own []metabridge.AttributeDef
	var super string
	switch d := def.(type) {
	case *metabridge.EntityDef:
		own, super = d.Attributes, d.SuperType
	case *metabridge.ClassificationDef:
		own = d.Attributes
	case *metabridge.RelationshipDef:
		own = d.Attributes
	case *metabridge.EnumDef:
		return attrs
	}

	if super != "" {
		superDef := s.typeDefByNameLocked(super)
		if superDef == nil {
			zap.S().Debugw("supertype not registered, inheritance walk stops", "type", header.Name, "superType", super)
		} else {
			for name, attr := range s.resolveAttributesLocked(superDef, seen) {
				attrs[name] = attr
			}
		}
	}
	for _, attr := range own {
		attrs[attr.Name] = attr
	}
	return attrs
}

func (s *TypeStore) typeDefByNameLocked(name string) metabridge.TypeDef {
	if def, ok := s.implementedByName[name]; ok {
		return def
	}
	if def, ok := s.unimplementedByName[name]; ok {
		return def
	}
	return nil
}

// IsImplemented reports whether the canonical type was fully published.
func (s *TypeStore) IsImplemented(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.implementedByName[name]
	return ok
}

// TypeDefByName returns the type record for a canonical name, implemented or
// not, and whether it is implemented.
func (s *TypeStore) TypeDefByName(name string) (metabridge.TypeDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if def, ok := s.implementedByName[name]; ok {
		return def, true
	}
	return s.unimplementedByName[name], false
}

// TypeDefByGUID returns the type record for a canonical type GUID,
// implemented or not, and whether it is implemented.
func (s *TypeStore) TypeDefByGUID(guid string) (metabridge.TypeDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if def, ok := s.implementedByGUID[guid]; ok {
		return def, true
	}
	return s.unimplementedByGUID[guid], false
}

// AttributesFor returns the full (inherited included) attribute set of a
// known canonical type. The map is shared; callers must not mutate it.
func (s *TypeStore) AttributesFor(canonicalType string) map[string]metabridge.AttributeDef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attributesByType[canonicalType]
}
