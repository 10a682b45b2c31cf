package internal

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
)

//go:embed mappings.json
var defaultMappings []byte

//go:embed mappings_schema.json
var mappingSchema []byte

// MappingDocument is the declarative type-correspondence artifact. It is the
// single source of truth for which vendor types, attributes and relationship
// endpoints back each canonical type.
type MappingDocument struct {
	Version         int                   `json:"version"`
	Reserved        []string              `json:"reserved,omitempty"`
	Entities        []TypeMapping         `json:"entities,omitempty"`
	Classifications []TypeMapping         `json:"classifications,omitempty"`
	Relationships   []RelationshipMapping `json:"relationships,omitempty"`
	Generated       []GeneratedMapping    `json:"generated,omitempty"`
	Enums           []EnumMapping         `json:"enums,omitempty"`
}

// TypeMapping pairs one canonical type with one (vendor type, prefix)
// projection and lists its attribute renames. Attributes absent from the map
// fall back to identity resolution.
type TypeMapping struct {
	Canonical  string            `json:"canonical"`
	Vendor     string            `json:"vendor"`
	Prefix     string            `json:"prefix,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EndpointDoc describes one canonical relationship end in the artifact.
type EndpointDoc struct {
	Prefix          string `json:"prefix,omitempty"`
	VendorEnd       string `json:"vendorEnd,omitempty"`
	VendorAttribute string `json:"vendorAttribute"`
}

// RelationshipMapping extends a TypeMapping with the two endpoint
// descriptions needed to orient instances.
type RelationshipMapping struct {
	TypeMapping
	One EndpointDoc `json:"one"`
	Two EndpointDoc `json:"two"`
}

// GeneratedMapping declares a canonical relationship with no vendor-side
// representation: both ends are projections of the same vendor entity, and
// the relationship exists purely because the prefixed projection does.
type GeneratedMapping struct {
	Canonical    string `json:"canonical"`
	VendorEntity string `json:"vendorEntity"`
	Prefix       string `json:"prefix"`
	OnePrefix    string `json:"onePrefix,omitempty"`
	TwoPrefix    string `json:"twoPrefix,omitempty"`
}

// EnumMapping pairs a canonical enumeration with a vendor one, element by
// element.
type EnumMapping struct {
	Canonical string            `json:"canonical"`
	Vendor    string            `json:"vendor"`
	Elements  map[string]string `json:"elements,omitempty"`
	Ordinals  map[string]int    `json:"ordinals,omitempty"`
}

// DefaultMappingDocument parses the embedded artifact. The embedded copy is
// validated by tests, so a parse failure here is a build defect.
func DefaultMappingDocument() *MappingDocument {
	doc, err := parseMappingDocument(defaultMappings)
	if err != nil {
		panic(fmt.Sprintf("embedded mapping artifact invalid: %v", err))
	}
	return doc
}

// LoadMappingDocument reads the artifact from a local path or an s3:// URI,
// validates it against the artifact schema and parses it. An empty path
// yields the embedded defaults.
func LoadMappingDocument(ctx context.Context, path, s3Region string) (*MappingDocument, error) {
	if path == "" {
		return DefaultMappingDocument(), nil
	}

	var raw []byte
	var err error
	if strings.HasPrefix(path, "s3://") {
		raw, err = fetchS3Object(ctx, path, s3Region)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping artifact %s: %w", path, err)
	}
	return parseMappingDocument(raw)
}

func parseMappingDocument(raw []byte) (*MappingDocument, error) {
	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("mapping artifact rejected by schema: %w", err)
	}
	var doc MappingDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse mapping artifact: %w", err)
	}
	return &doc, nil
}

func validateAgainstSchema(raw []byte) error {
	var schema jsonschema.Schema
	if err := json.Unmarshal(mappingSchema, &schema); err != nil {
		return fmt.Errorf("unmarshal artifact schema: %w", err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("resolve artifact schema: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshal artifact: %w", err)
	}
	return resolved.Validate(data)
}

func fetchS3Object(ctx context.Context, uri, region string) ([]byte, error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("malformed s3 uri %q", uri)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if region != "" {
		awsCfg.Region = region
	}
	client := s3.NewFromConfig(awsCfg)
	downloader := manager.NewDownloader(client)

	buf := manager.NewWriteAtBuffer(nil)
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	return buf.Bytes(), nil
}

// Populate loads the document's declarations into the type store and enum
// registry. Malformed entries are skipped with a warning so one bad row does
// not take the whole artifact down.
func (d *MappingDocument) Populate(store *TypeStore, enums *EnumRegistry) {
	log := zap.S()

	for _, name := range d.Reserved {
		store.AddReserved(name)
	}

	for _, tm := range append(append([]TypeMapping{}, d.Entities...), d.Classifications...) {
		if tm.Canonical == "" || tm.Vendor == "" {
			log.Warnw("skipping type mapping with empty name", "canonical", tm.Canonical, "vendor", tm.Vendor)
			continue
		}
		store.AddCorrespondence(NewTypeCorrespondence(tm.Canonical, tm.Vendor, tm.Prefix, tm.Attributes))
	}

	for _, rm := range d.Relationships {
		if rm.Canonical == "" || rm.Vendor == "" {
			log.Warnw("skipping relationship mapping with empty name", "canonical", rm.Canonical, "vendor", rm.Vendor)
			continue
		}
		tc := NewTypeCorrespondence(rm.Canonical, rm.Vendor, rm.Prefix, rm.Attributes)
		tc.Endpoints = &EndpointCorrespondence{
			VendorType:    rm.Vendor,
			CanonicalType: rm.Canonical,
			Prefix:        rm.Prefix,
			One:           endpointPeer(rm.One),
			Two:           endpointPeer(rm.Two),
		}
		store.AddCorrespondence(tc)
	}

	for _, gm := range d.Generated {
		if gm.Canonical == "" || gm.VendorEntity == "" || gm.Prefix == "" {
			log.Warnw("skipping generated mapping with missing fields",
				"canonical", gm.Canonical, "vendorEntity", gm.VendorEntity, "prefix", gm.Prefix)
			continue
		}
		tc := NewTypeCorrespondence(gm.Canonical, gm.VendorEntity, gm.Prefix, nil)
		tc.Endpoints = &EndpointCorrespondence{
			VendorType:    gm.VendorEntity,
			CanonicalType: gm.Canonical,
			Prefix:        gm.Prefix,
			One:           EndpointPeer{Prefix: gm.OnePrefix, VendorEnd: VendorEndUndefined},
			Two:           EndpointPeer{Prefix: gm.TwoPrefix, VendorEnd: VendorEndUndefined},
		}
		store.AddGeneratedCorrespondence(tc)
	}

	for _, em := range d.Enums {
		if em.Canonical == "" || em.Vendor == "" {
			log.Warnw("skipping enum mapping with empty name", "canonical", em.Canonical, "vendor", em.Vendor)
			continue
		}
		enums.AddMapping(em.Canonical, em.Vendor, em.Elements, em.Ordinals)
	}
}

func endpointPeer(doc EndpointDoc) EndpointPeer {
	end := VendorEnd(doc.VendorEnd)
	switch end {
	case VendorEndOne, VendorEndTwo:
	default:
		end = VendorEndUndefined
	}
	return EndpointPeer{
		Prefix:          doc.Prefix,
		VendorEnd:       end,
		VendorAttribute: doc.VendorAttribute,
	}
}
