package main

import (
	"context"
	"fmt"
)

// CatalogStore is the object-store side of the persistence gateway: one JSON
// document per state for each collection, read and written whole. The object
// store is the source of truth; the relational projection is rebuilt from it.
type CatalogStore struct {
	s3 *S3Client
}

func NewCatalogStore(s3 *S3Client) *CatalogStore {
	return &CatalogStore{s3: s3}
}

func stateCatalogKey(stateCode string) string {
	return fmt.Sprintf("catalog/states/%s.json", stateCode)
}

func facilityCatalogKey(stateCode string) string {
	return fmt.Sprintf("catalog/facilities/%s.json", stateCode)
}

func registryKey(stateCode string) string {
	return fmt.Sprintf("catalog/registry/%s.json", stateCode)
}

// LoadStateCatalog returns the persisted catalog for a state, or nil when
// none has been written yet.
func (cs *CatalogStore) LoadStateCatalog(ctx context.Context, stateCode string) (*StateCatalog, error) {
	var catalog StateCatalog
	found, err := cs.s3.GetJSON(ctx, stateCatalogKey(stateCode), &catalog)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if catalog.Parks == nil {
		catalog.Parks = make(map[string]*ParkTrails)
	}
	return &catalog, nil
}

// SaveStateCatalog replaces the state document as a whole. Whole-document
// replace keeps concurrent runs on disjoint states safe.
func (cs *CatalogStore) SaveStateCatalog(ctx context.Context, catalog *StateCatalog) error {
	return cs.s3.PutJSON(ctx, stateCatalogKey(catalog.Meta.StateCode), catalog)
}

// LoadFacilityCatalog returns the persisted facility set for a state, or nil.
func (cs *CatalogStore) LoadFacilityCatalog(ctx context.Context, stateCode string) (*FacilityCatalog, error) {
	var fc FacilityCatalog
	found, err := cs.s3.GetJSON(ctx, facilityCatalogKey(stateCode), &fc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &fc, nil
}

func (cs *CatalogStore) SaveFacilityCatalog(ctx context.Context, fc *FacilityCatalog) error {
	return cs.s3.PutJSON(ctx, facilityCatalogKey(fc.Meta.StateCode), fc)
}

// LoadRegistry returns the deduplicated park registry for a state, or nil.
func (cs *CatalogStore) LoadRegistry(ctx context.Context, stateCode string) (*ParkRegistry, error) {
	var reg ParkRegistry
	found, err := cs.s3.GetJSON(ctx, registryKey(stateCode), &reg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &reg, nil
}

func (cs *CatalogStore) SaveRegistry(ctx context.Context, reg *ParkRegistry) error {
	return cs.s3.PutJSON(ctx, registryKey(reg.Meta.StateCode), reg)
}
