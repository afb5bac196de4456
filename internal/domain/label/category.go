package label

import (
	"fmt"

	"github.com/labelops/engine/internal/domain/shared"
)

// Category classifies an issued label. The set is closed: behavior driven by
// category (required fields, outbound eligibility) lives in CategoryPolicy
// rather than in scattered string comparisons.
type Category string

const (
	// CategoryTracked is managed stock: full lot/expiry/version required and
	// never eligible for outbound deduction.
	CategoryTracked Category = "tracked"
	// CategoryStandard is regular stock with full metadata.
	CategoryStandard Category = "standard"
	// CategoryBulkStandard is bulk-packed regular stock.
	CategoryBulkStandard Category = "bulk-standard"
	// CategorySample is sample stock; it carries sentinel lot/expiry/version
	// values instead of real metadata.
	CategorySample Category = "sample"
)

// Sentinel values stamped on sample-category records.
const (
	SampleLot = "SAMPLE"
	NoValue   = "N/A"
)

// IsValid checks if the category is one of the closed set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTracked, CategoryStandard, CategoryBulkStandard, CategorySample:
		return true
	}
	return false
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// AllCategories returns the closed category set.
func AllCategories() []Category {
	return []Category{CategoryTracked, CategoryStandard, CategoryBulkStandard, CategorySample}
}

// ParseCategory converts free text into a Category.
func ParseCategory(text string) (Category, error) {
	c := Category(text)
	if !c.IsValid() {
		return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown category %q", text))
	}
	return c, nil
}

// CategoryPolicy is the behavior associated with a category.
type CategoryPolicy struct {
	// RequiresLotExpiryVersion forces lot, expiry date and version to be
	// present at issuance. Categories without it get sentinel values.
	RequiresLotExpiryVersion bool
	// OutboundAllowed permits outbound deduction for records of this
	// category. Tracked stock can only leave via the manual correction path.
	OutboundAllowed bool
}

var categoryPolicies = map[Category]CategoryPolicy{
	CategoryTracked:      {RequiresLotExpiryVersion: true, OutboundAllowed: false},
	CategoryStandard:     {RequiresLotExpiryVersion: true, OutboundAllowed: true},
	CategoryBulkStandard: {RequiresLotExpiryVersion: true, OutboundAllowed: true},
	CategorySample:       {RequiresLotExpiryVersion: false, OutboundAllowed: true},
}

// Policy returns the policy for the category. Unknown categories get the
// most restrictive policy.
func (c Category) Policy() CategoryPolicy {
	if p, ok := categoryPolicies[c]; ok {
		return p
	}
	return CategoryPolicy{RequiresLotExpiryVersion: true, OutboundAllowed: false}
}
