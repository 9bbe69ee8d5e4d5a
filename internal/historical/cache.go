package historical

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// objectKey identifies one cached (id, version) pair — the local cache
// tier is the priority-0 source of spec.md §4.2, consulted before any
// network fetch.
type objectKey struct {
	id      suitypes.ObjectID
	version uint64
}

// Cache is the bounded local cache tier in front of the checkpoint
// archive and gRPC sources (spec.md §4.2 "local cache").
type Cache struct {
	objects  *lru.Cache[objectKey, *suitypes.Object]
	packages *lru.Cache[suitypes.Address, *suitypes.Package]
}

// NewCache builds a cache with independent bounds for objects and
// packages, since a package closure entry is typically far larger than
// a single object.
func NewCache(objectCapacity, packageCapacity int) (*Cache, error) {
	objects, err := lru.New[objectKey, *suitypes.Object](objectCapacity)
	if err != nil {
		return nil, err
	}
	packages, err := lru.New[suitypes.Address, *suitypes.Package](packageCapacity)
	if err != nil {
		return nil, err
	}
	return &Cache{objects: objects, packages: packages}, nil
}

func (c *Cache) GetObject(id suitypes.ObjectID, version uint64) (*suitypes.Object, bool) {
	return c.objects.Get(objectKey{id: id, version: version})
}

func (c *Cache) PutObject(obj *suitypes.Object) {
	c.objects.Add(objectKey{id: obj.ID, version: obj.Version}, obj)
}

func (c *Cache) GetPackage(addr suitypes.Address) (*suitypes.Package, bool) {
	return c.packages.Get(addr)
}

func (c *Cache) PutPackage(pkg *suitypes.Package) {
	c.packages.Add(pkg.RuntimeAddress, pkg)
}
