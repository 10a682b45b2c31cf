package internal

import (
	"sync"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
)

// enumCorrespondence maps one canonical enumeration type onto a vendor enum,
// element by element.
type enumCorrespondence struct {
	canonicalName string
	vendorName    string

	symbolToVendor  map[string]string
	vendorToSymbol  map[string]string
	ordinalBySymbol map[string]int
}

// EnumRegistry answers enum type and element correspondence questions in both
// directions. Like the type store it is populated before instance translation
// starts and is read-mostly afterwards; Register only appends identity
// self-mappings for canonical enums published at runtime.
type EnumRegistry struct {
	mu          sync.RWMutex
	byCanonical map[string]*enumCorrespondence
	byVendor    map[string]*enumCorrespondence
}

// NewEnumRegistry creates an empty enum registry.
func NewEnumRegistry() *EnumRegistry {
	return &EnumRegistry{
		byCanonical: make(map[string]*enumCorrespondence),
		byVendor:    make(map[string]*enumCorrespondence),
	}
}

func (r *EnumRegistry) add(c *enumCorrespondence) {
	r.byCanonical[c.canonicalName] = c
	r.byVendor[c.vendorName] = c
}

// AddMapping records an explicit enum correspondence from the static mapping
// artifact. Elements pairs canonical symbols with vendor values.
func (r *EnumRegistry) AddMapping(canonicalName, vendorName string, elements map[string]string, ordinals map[string]int) {
	c := &enumCorrespondence{
		canonicalName:   canonicalName,
		vendorName:      vendorName,
		symbolToVendor:  make(map[string]string, len(elements)),
		vendorToSymbol:  make(map[string]string, len(elements)),
		ordinalBySymbol: make(map[string]int, len(ordinals)),
	}
	for symbol, vendorValue := range elements {
		c.symbolToVendor[symbol] = vendorValue
		c.vendorToSymbol[vendorValue] = symbol
	}
	for symbol, ordinal := range ordinals {
		c.ordinalBySymbol[symbol] = ordinal
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(c)
}

// Register appends an identity self-mapping for a canonical enum definition
// published to the vendor under its own name. Registering the same
// definition again replaces the entry with identical content.
func (r *EnumRegistry) Register(def *metabridge.EnumDef) {
	c := &enumCorrespondence{
		canonicalName:   def.Name,
		vendorName:      def.Name,
		symbolToVendor:  make(map[string]string, len(def.Elements)),
		vendorToSymbol:  make(map[string]string, len(def.Elements)),
		ordinalBySymbol: make(map[string]int, len(def.Elements)),
	}
	for _, el := range def.Elements {
		c.symbolToVendor[el.Symbol] = el.Symbol
		c.vendorToSymbol[el.Symbol] = el.Symbol
		c.ordinalBySymbol[el.Symbol] = el.Ordinal
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byCanonical[def.Name]; ok && existing.vendorName != def.Name {
		// An artifact mapping takes precedence over a runtime self-mapping.
		zap.S().Debugw("enum already mapped, keeping artifact mapping", "enum", def.Name, "vendor", existing.vendorName)
		return
	}
	r.add(c)
}

// VendorEnumName returns the vendor enum name for a canonical enum type,
// falling back to the canonical name when unmapped.
func (r *EnumRegistry) VendorEnumName(canonicalName string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byCanonical[canonicalName]; ok {
		return c.vendorName
	}
	return canonicalName
}

// CanonicalEnumName returns the canonical enum name for a vendor enum, or ""
// when neither a mapping nor an identity registration exists.
func (r *EnumRegistry) CanonicalEnumName(vendorName string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byVendor[vendorName]; ok {
		return c.canonicalName
	}
	return ""
}

// VendorElement translates a canonical enum symbol into the vendor value.
// Unmapped enums pass the symbol through unchanged.
func (r *EnumRegistry) VendorElement(canonicalEnum, symbol string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byCanonical[canonicalEnum]; ok {
		if v, ok := c.symbolToVendor[symbol]; ok {
			return v
		}
		zap.S().Warnw("enum symbol has no vendor value, passing through", "enum", canonicalEnum, "symbol", symbol)
	}
	return symbol
}

// CanonicalElement translates a vendor enum value into the canonical symbol
// and ordinal. ok is false when the enum itself is unknown; an unknown value
// of a known enum passes through with ordinal -1.
func (r *EnumRegistry) CanonicalElement(canonicalEnum, vendorValue string) (symbol string, ordinal int, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, found := r.byCanonical[canonicalEnum]
	if !found {
		return "", 0, false
	}
	if s, ok := c.vendorToSymbol[vendorValue]; ok {
		if o, ok := c.ordinalBySymbol[s]; ok {
			return s, o, true
		}
		return s, -1, true
	}
	zap.S().Warnw("vendor enum value has no canonical symbol, passing through", "enum", canonicalEnum, "value", vendorValue)
	return vendorValue, -1, true
}
