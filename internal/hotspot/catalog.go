package hotspot

import "fmt"

// Catalog groups regions by report class, each group in file order.
type Catalog struct {
	regions [numClasses][]*Region
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// LoadCatalog reads every region of a catalog file. The path "-" yields an
// empty catalog. No partial catalog is returned on error.
func LoadCatalog(path string) (*Catalog, error) {
	c := NewCatalog()
	if path == "-" {
		return c, nil
	}

	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := c.ReadFrom(r); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadFrom appends every region produced by r.
func (c *Catalog) ReadFrom(r *Reader) error {
	for {
		region, err := r.Next()
		if err != nil {
			return err
		}
		if region == nil {
			return nil
		}
		c.Add(region)
	}
}

// Add appends a region to its class group.
func (c *Catalog) Add(r *Region) {
	c.regions[r.Class] = append(c.regions[r.Class], r)
}

// Regions returns the regions of one class in file order.
func (c *Catalog) Regions(class ReportClass) []*Region {
	return c.regions[class]
}

// Len returns the total number of regions.
func (c *Catalog) Len() int {
	n := 0
	for _, rs := range c.regions {
		n += len(rs)
	}
	return n
}

// Each calls fn for every region in precedence order, then file order.
// Iteration stops at the first error.
func (c *Catalog) Each(fn func(*Region) error) error {
	for _, class := range Precedence {
		for _, r := range c.regions[class] {
			if err := fn(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Catalog) String() string {
	return fmt.Sprintf("catalog{hotspot:%d region_all:%d region:%d indel:%d}",
		len(c.regions[ClassHotspot]), len(c.regions[ClassRegionAll]),
		len(c.regions[ClassRegion]), len(c.regions[ClassIndel]))
}
