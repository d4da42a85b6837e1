package catalog

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vigil/core"
	"vigil/metrics"
)

// Segment counts that are legal for catalog purposes. A one-segment name
// addresses a whole collection; a three-segment name addresses an item.
const (
	collectionParts = 1
	itemParts       = 3
)

// Store persists and retrieves structured content keyed by name. All
// implementations report missing content with storage.ErrNotFound and
// name collisions with storage.ErrAlreadyExists.
type Store interface {
	Get(name core.Name) (*core.Document, error)
	Add(name core.Name, doc *core.Document) error
	Update(name core.Name, doc *core.Document) error
	Delete(name core.Name) error
	List(t core.Type) ([]core.Name, error)
}

// Validator performs schema-based structural validation per content
// category.
type Validator interface {
	ValidateAsset(doc *core.Document) error
	ValidatePolicy(doc *core.Document) error
	ValidateIntegration(doc *core.Document) error
}

// Config holds the catalog's collaborators.
type Config struct {
	Store     Store
	Validator Validator
	Logger    *zap.SugaredLogger
}

// Validate checks that every collaborator is present.
func (c Config) Validate() error {
	if c.Store == nil {
		return errors.New("catalog config: store is nil")
	}
	if c.Validator == nil {
		return errors.New("catalog config: validator is nil")
	}
	if c.Logger == nil {
		return errors.New("catalog config: logger is nil")
	}
	return nil
}

// Catalog orchestrates get/add/update/delete operations over catalog
// resources: it converts between formats, validates content, enforces
// collection semantics and checks referential integrity for composite
// content before persisting.
//
// Referential checks and the final persist are separate store calls with
// no snapshot isolation between them: a referenced component deleted
// concurrently in that window can leave a dangling reference. Accepted
// contract, not remediated here.
type Catalog struct {
	store     Store
	validator Validator
	logger    *zap.SugaredLogger
}

// New builds a Catalog from a validated configuration.
func New(cfg Config) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Catalog{
		store:     cfg.Store,
		validator: cfg.Validator,
		logger:    cfg.Logger,
	}, nil
}

// observe records the outcome of a catalog operation.
func observe(op string, t core.Type, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CatalogOperations.WithLabelValues(op, t.String(), status).Inc()
}

// GetResource retrieves the serialized content addressed by the resource.
// A collection resource yields the array of item names under its type; an
// empty collection yields an empty array, not an error. An item resource
// yields the stored document. Read-only.
func (c *Catalog) GetResource(res core.Resource) (content string, err error) {
	defer func() { observe("get", res.Type, err) }()

	switch res.Name.NumParts() {
	case collectionParts:
		names, listErr := c.store.List(res.Type)
		if listErr != nil {
			return "", fmt.Errorf("Collection '%s' could not be obtained from store: %v", res.Name, listErr)
		}
		items := make([]string, len(names))
		for i, n := range names {
			items[i] = n.String()
		}
		return core.NewStringArrayDocument(items).Render(res.Format)
	case itemParts:
		doc, getErr := c.store.Get(res.Name)
		if getErr != nil {
			return "", fmt.Errorf("Content '%s' could not be obtained from store: %v", res.Name, getErr)
		}
		return doc.Render(res.Format)
	default:
		return "", invalidPartsError(res.Name)
	}
}

// PostResource creates a new item under a collection resource. The item
// name comes from the content's /name field, never from the caller, so
// only a collection resource is legal here. Creation never overwrites:
// posting to an existing name fails.
func (c *Catalog) PostResource(res core.Resource, content string) (err error) {
	defer func() { observe("post", res.Type, err) }()

	if !res.IsCollection() {
		return fmt.Errorf("expected a collection resource for POST, got '%s'", res.Name)
	}

	doc, itemName, err := c.parseItem(res, content)
	if err != nil {
		return err
	}
	if itemName.Part(0) != res.Type.String() {
		return fmt.Errorf("content name '%s' does not match collection type '%s'", itemName, res.Type)
	}
	if err := c.validate(res.Type, itemName, doc); err != nil {
		return err
	}
	if _, getErr := c.store.Get(itemName); getErr == nil {
		return fmt.Errorf("Content '%s' already exists in store", itemName)
	}
	if addErr := c.store.Add(itemName, doc); addErr != nil {
		return fmt.Errorf("Content '%s' could not be added to store: %v", itemName, addErr)
	}
	c.logger.Debugf("catalog: added '%s'", itemName)
	return nil
}

// PutResource replaces the content of an existing item. Collection names
// are rejected with ErrCollectionPut; the item must already exist.
func (c *Catalog) PutResource(res core.Resource, content string) (err error) {
	defer func() { observe("put", res.Type, err) }()

	if res.IsCollection() {
		return ErrCollectionPut
	}
	if res.Name.NumParts() != itemParts {
		return invalidPartsError(res.Name)
	}

	doc, itemName, err := c.parseItem(res, content)
	if err != nil {
		return err
	}
	if !itemName.Equal(res.Name) {
		return fmt.Errorf("invalid content name '%s' for resource '%s'", itemName, res.Name)
	}
	if err := c.validate(res.Type, itemName, doc); err != nil {
		return err
	}
	if updErr := c.store.Update(res.Name, doc); updErr != nil {
		return fmt.Errorf("Content '%s' could not be updated in store: %v", res.Name, updErr)
	}
	c.logger.Debugf("catalog: updated '%s'", res.Name)
	return nil
}

// DeleteResource removes an item, or every item under a collection. A
// collection delete proceeds item by item and stops at the first failure,
// leaving a partially deleted collection; it is not transactional.
func (c *Catalog) DeleteResource(res core.Resource) (err error) {
	defer func() { observe("delete", res.Type, err) }()

	switch res.Name.NumParts() {
	case collectionParts:
		names, listErr := c.store.List(res.Type)
		if listErr != nil {
			return fmt.Errorf("Collection '%s' could not be obtained from store: %v", res.Name, listErr)
		}
		for _, n := range names {
			if delErr := c.store.Delete(n); delErr != nil {
				return fmt.Errorf("Content '%s' could not be deleted from store: %v", n, delErr)
			}
		}
		c.logger.Debugf("catalog: deleted collection '%s' (%d items)", res.Name, len(names))
		return nil
	case itemParts:
		if delErr := c.store.Delete(res.Name); delErr != nil {
			return fmt.Errorf("Content '%s' could not be deleted from store: %v", res.Name, delErr)
		}
		c.logger.Debugf("catalog: deleted '%s'", res.Name)
		return nil
	default:
		return invalidPartsError(res.Name)
	}
}

// ValidateResource runs the full validation pipeline for an item resource
// without persisting anything: a dry run of the PUT path.
func (c *Catalog) ValidateResource(res core.Resource, content string) (err error) {
	defer func() { observe("validate", res.Type, err) }()

	if res.Name.NumParts() != itemParts {
		return invalidPartsError(res.Name)
	}
	doc, itemName, err := c.parseItem(res, content)
	if err != nil {
		return err
	}
	if !itemName.Equal(res.Name) {
		return fmt.Errorf("invalid content name '%s' for resource '%s'", itemName, res.Name)
	}
	return c.validate(res.Type, itemName, doc)
}

// parseItem deserializes content in the resource's format and derives the
// item name from the /name field.
func (c *Catalog) parseItem(res core.Resource, content string) (*core.Document, core.Name, error) {
	doc, err := core.ParseDocument(content, res.Format)
	if err != nil {
		return nil, core.Name{}, fmt.Errorf("invalid content for '%s': %w", res.Name, err)
	}
	nameStr, ok := doc.GetString("/name")
	if !ok {
		return nil, core.Name{}, fmt.Errorf("content of '%s' is missing the /name field", res.Name)
	}
	itemName, err := core.NewName(nameStr)
	if err != nil {
		return nil, core.Name{}, fmt.Errorf("invalid content /name field '%s': %w", nameStr, err)
	}
	if itemName.NumParts() != itemParts {
		return nil, core.Name{}, invalidPartsError(itemName)
	}
	return doc, itemName, nil
}

// assetListFields maps integration document fields to the content type
// their entries must reference.
var assetListFields = []struct {
	field string
	t     core.Type
}{
	{"decoders", core.TypeDecoder},
	{"rules", core.TypeRule},
	{"outputs", core.TypeOutput},
	{"filters", core.TypeFilter},
}

// validate dispatches to the category-specific validator and, for
// composite content, verifies every referenced component exists. Either
// the whole sequence passes or nothing is persisted.
func (c *Catalog) validate(t core.Type, name core.Name, doc *core.Document) error {
	switch t {
	case core.TypePolicy:
		if err := c.validator.ValidatePolicy(doc); err != nil {
			return fmt.Errorf("%w for '%s': %v", ErrValidationFailed, name, err)
		}
		integrations, ok := doc.GetStringArray("/integrations")
		if !ok {
			// No integrations field: a policy may group nothing yet.
			return nil
		}
		for _, ref := range integrations {
			if err := c.checkReference(ref, core.TypeIntegration, name); err != nil {
				return err
			}
		}
		return nil
	case core.TypeIntegration:
		if err := c.validator.ValidateIntegration(doc); err != nil {
			return fmt.Errorf("%w for '%s': %v", ErrValidationFailed, name, err)
		}
		for _, list := range assetListFields {
			refs, ok := doc.GetStringArray("/" + list.field)
			if !ok {
				continue
			}
			for _, ref := range refs {
				if err := c.checkReference(ref, list.t, name); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		if err := c.validator.ValidateAsset(doc); err != nil {
			return fmt.Errorf("%w for '%s': %v", ErrValidationFailed, name, err)
		}
		return nil
	}
}

// checkReference verifies that a referenced name is well formed, of the
// expected type and present in the store.
func (c *Catalog) checkReference(ref string, want core.Type, owner core.Name) error {
	refName, err := core.NewName(ref)
	if err != nil {
		return fmt.Errorf("invalid reference '%s' in '%s': %w", ref, owner, err)
	}
	if refName.NumParts() != itemParts || refName.Part(0) != want.String() {
		return fmt.Errorf("invalid reference '%s' in '%s': expected an item of type %s", ref, owner, want)
	}
	if _, err := c.store.Get(refName); err != nil {
		return fmt.Errorf("%w: '%s' referenced by '%s' does not exist in store", ErrMissingReference, refName, owner)
	}
	return nil
}

func invalidPartsError(name core.Name) error {
	return fmt.Errorf("invalid name '%s': expected %d or %d parts, got %d",
		name, collectionParts, itemParts, name.NumParts())
}
