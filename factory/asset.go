/*
Package factory provides JSON to Go asset conversion.

PURPOSE:
  Converts JSON asset definitions into generic.Asset records. Asset
  registers, imports and the HTTP API all speak this shape; the factory
  validates it once and normalizes the method label to its canonical tag.

JSON SCHEMA:
  {
    "id": "press-1",
    "name": "Hydraulic press",
    "category": "manufacturing",
    "unit_cost": "250000.00",
    "quantity": 1,
    "salvage_value": "25000",
    "useful_life_years": 4,
    "method": "Double Declining Balance",
    "acquisition_date": "2021-01-01"
  }

  Money fields accept JSON numbers or decimal strings.

VALIDATION:
  - Struct tags checked with go-playground/validator
  - unit_cost and salvage_value must not be negative
  - method must be a known method label or tag
  - salvage above cost is accepted (the engine clamps it)
  - useful_life_years of 0 is accepted (never depreciates, e.g. land)

USAGE:
  f := NewAssetFactory()
  asset, err := f.ParseAsset(jsonString)

SEE ALSO:
  - generic/types.go: Asset type definition
  - depreciation/method.go: Method labels and normalization
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// AssetJSON is the JSON representation of an asset.
type AssetJSON struct {
	ID              string          `json:"id" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=200"`
	Category        string          `json:"category,omitempty" validate:"omitempty,max=64"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Quantity        int             `json:"quantity,omitempty" validate:"gte=0"`
	SalvageValue    decimal.Decimal `json:"salvage_value"`
	UsefulLifeYears int             `json:"useful_life_years" validate:"gte=0,lte=200"`
	Method          string          `json:"method" validate:"required"`
	AcquisitionDate string          `json:"acquisition_date" validate:"required,datetime=2006-01-02"`
	// DepreciationYearsApplied seeds the counter for assets imported
	// mid-life. It is ignored when the asset already exists.
	DepreciationYearsApplied int `json:"depreciation_years_applied,omitempty" validate:"gte=0"`
}

// =============================================================================
// ASSET FACTORY
// =============================================================================

// AssetFactory converts JSON assets to Go structs.
type AssetFactory struct {
	validate *validator.Validate
}

// NewAssetFactory creates a new asset factory.
func NewAssetFactory() *AssetFactory {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &AssetFactory{validate: v}
}

// ParseAsset parses a JSON string into an Asset.
func (f *AssetFactory) ParseAsset(jsonStr string) (generic.Asset, error) {
	var aj AssetJSON
	if err := json.Unmarshal([]byte(jsonStr), &aj); err != nil {
		return generic.Asset{}, &generic.InvalidAssetError{Field: "body", Reason: err.Error()}
	}
	return f.FromJSON(aj)
}

// ParseAssets parses a JSON array of assets. The first invalid element
// fails the whole list.
func (f *AssetFactory) ParseAssets(jsonStr string) ([]generic.Asset, error) {
	var list []AssetJSON
	if err := json.Unmarshal([]byte(jsonStr), &list); err != nil {
		return nil, &generic.InvalidAssetError{Field: "body", Reason: err.Error()}
	}

	assets := make([]generic.Asset, 0, len(list))
	for i, aj := range list {
		a, err := f.FromJSON(aj)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", i, err)
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// FromJSON validates AssetJSON and converts it to generic.Asset.
func (f *AssetFactory) FromJSON(aj AssetJSON) (generic.Asset, error) {
	if err := f.validate.Struct(aj); err != nil {
		return generic.Asset{}, fromValidationError(err)
	}
	if aj.UnitCost.IsNegative() {
		return generic.Asset{}, &generic.InvalidAssetError{Field: "unit_cost", Reason: "must not be negative"}
	}
	if aj.SalvageValue.IsNegative() {
		return generic.Asset{}, &generic.InvalidAssetError{Field: "salvage_value", Reason: "must not be negative"}
	}

	method, err := depreciation.ParseMethod(aj.Method)
	if err != nil {
		return generic.Asset{}, err
	}

	acquired, err := generic.ParseDate(aj.AcquisitionDate)
	if err != nil {
		return generic.Asset{}, &generic.InvalidAssetError{Field: "acquisition_date", Reason: err.Error()}
	}

	quantity := aj.Quantity
	if quantity == 0 {
		quantity = 1
	}

	return generic.Asset{
		ID:                       generic.AssetID(aj.ID),
		Name:                     aj.Name,
		Category:                 aj.Category,
		UnitCost:                 generic.Amount{Value: aj.UnitCost},
		Quantity:                 quantity,
		SalvageValue:             generic.Amount{Value: aj.SalvageValue},
		UsefulLifeYears:          aj.UsefulLifeYears,
		Method:                   string(method),
		AcquisitionDate:          acquired,
		DepreciationYearsApplied: aj.DepreciationYearsApplied,
	}, nil
}

// ToJSON converts an Asset to AssetJSON.
func (f *AssetFactory) ToJSON(a generic.Asset) AssetJSON {
	return AssetJSON{
		ID:                       string(a.ID),
		Name:                     a.Name,
		Category:                 a.Category,
		UnitCost:                 a.UnitCost.Value,
		Quantity:                 a.Quantity,
		SalvageValue:             a.SalvageValue.Value,
		UsefulLifeYears:          a.UsefulLifeYears,
		Method:                   a.Method,
		AcquisitionDate:          a.AcquisitionDate.String(),
		DepreciationYearsApplied: a.DepreciationYearsApplied,
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// fromValidationError reports the first failing field.
func fromValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &generic.InvalidAssetError{Field: fe.Field(), Reason: reason}
	}
	return &generic.InvalidAssetError{Field: "body", Reason: err.Error()}
}
