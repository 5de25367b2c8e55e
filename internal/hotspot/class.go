// Package hotspot models catalogued regions of interest and assigns
// observed variants to them.
package hotspot

import (
	"fmt"

	"github.com/inodb/hotspot-report/internal/vcf"
)

// ReportClass is the category of a catalog region. It governs matching
// precedence and print policy.
type ReportClass int

const (
	ClassHotspot ReportClass = iota
	ClassIndel
	ClassRegion
	ClassRegionAll

	numClasses
)

var classNames = [numClasses]string{
	ClassHotspot:   "hotspot",
	ClassIndel:     "indel",
	ClassRegion:    "region",
	ClassRegionAll: "region_all",
}

// Precedence is the order in which classes are tried when assigning a variant.
var Precedence = [numClasses]ReportClass{ClassHotspot, ClassRegionAll, ClassRegion, ClassIndel}

// ParseReportClass returns the class with the exact given name.
func ParseReportClass(name string) (ReportClass, error) {
	for c, n := range classNames {
		if n == name {
			return ReportClass(c), nil
		}
	}
	return 0, fmt.Errorf("unknown report class %q", name)
}

func (c ReportClass) String() string {
	if c < 0 || c >= numClasses {
		return fmt.Sprintf("ReportClass(%d)", int(c))
	}
	return classNames[c]
}

// AlwaysPrint reports whether regions of this class are emitted even
// without overlapping variants.
func (c ReportClass) AlwaysPrint() bool {
	return c == ClassHotspot || c == ClassRegionAll
}

// PrintAll reports whether every uncovered position of the region is emitted.
func (c ReportClass) PrintAll() bool {
	return c == ClassRegionAll
}

// Category is the report tag written for every row.
type Category int

const (
	CategoryHotspot Category = iota + 1
	CategoryIndel
	CategoryCheck
	CategoryOther
)

var categoryNames = map[Category]string{
	CategoryHotspot: "hotspot",
	CategoryIndel:   "indel",
	CategoryCheck:   "check",
	CategoryOther:   "other",
}

func (c Category) String() string {
	name, ok := categoryNames[c]
	if !ok {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return fmt.Sprintf("%d-%s", int(c), name)
}

// PositionCategory returns the tag of a zero-variant row of a region class.
func PositionCategory(c ReportClass) Category {
	switch c {
	case ClassRegion, ClassRegionAll:
		return CategoryCheck
	case ClassIndel:
		return CategoryIndel
	}
	return CategoryHotspot
}

// VariantCategory returns the tag of a variant row. A nil region means the
// variant matched no catalog entry.
func VariantCategory(v *vcf.Variant, r *Region) Category {
	if r == nil {
		return CategoryOther
	}
	switch r.Class {
	case ClassRegion, ClassRegionAll:
		return CategoryCheck
	}
	if v != nil && (v.IsIndel() || v.IsMultiBaseSub()) {
		return CategoryIndel
	}
	return CategoryHotspot
}
