package factory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/generic"
)

func TestParseAsset_Valid(t *testing.T) {
	f := NewAssetFactory()

	asset, err := f.ParseAsset(`{
		"id": "press-1",
		"name": "Hydraulic press",
		"category": "manufacturing",
		"unit_cost": "125000.50",
		"quantity": 2,
		"salvage_value": 25000,
		"useful_life_years": 4,
		"method": "Double Declining Balance",
		"acquisition_date": "2021-01-01"
	}`)

	require.NoError(t, err)
	assert.Equal(t, generic.AssetID("press-1"), asset.ID)
	assert.Equal(t, string(depreciation.DoubleDeclining), asset.Method)
	assert.Equal(t, "250001.00", asset.TotalCost().String())
	assert.Equal(t, "25000.00", asset.SalvageValue.String())
	assert.Equal(t, "2021-01-01", asset.AcquisitionDate.String())
	assert.Equal(t, 0, asset.DepreciationYearsApplied)
}

func TestParseAsset_Defaults(t *testing.T) {
	f := NewAssetFactory()

	// Land: zero life, no quantity given
	asset, err := f.ParseAsset(`{"id":"land","name":"Lot 7","unit_cost":500000,"salvage_value":0,
		"useful_life_years":0,"method":"straight-line","acquisition_date":"2019-03-01"}`)

	require.NoError(t, err)
	assert.Equal(t, 1, asset.Quantity)
	assert.Equal(t, 0, asset.UsefulLifeYears)
	assert.Equal(t, string(depreciation.StraightLine), asset.Method)
}

func TestParseAsset_Rejections(t *testing.T) {
	f := NewAssetFactory()

	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"missing id", `{"name":"x","unit_cost":1,"salvage_value":0,"useful_life_years":1,"method":"straight_line","acquisition_date":"2024-01-01"}`, "id"},
		{"bad date", `{"id":"a","name":"x","unit_cost":1,"salvage_value":0,"useful_life_years":1,"method":"straight_line","acquisition_date":"01/02/2024"}`, "acquisition_date"},
		{"negative life", `{"id":"a","name":"x","unit_cost":1,"salvage_value":0,"useful_life_years":-3,"method":"straight_line","acquisition_date":"2024-01-01"}`, "useful_life_years"},
		{"negative cost", `{"id":"a","name":"x","unit_cost":-1,"salvage_value":0,"useful_life_years":1,"method":"straight_line","acquisition_date":"2024-01-01"}`, "unit_cost"},
		{"negative salvage", `{"id":"a","name":"x","unit_cost":1,"salvage_value":"-5","useful_life_years":1,"method":"straight_line","acquisition_date":"2024-01-01"}`, "salvage_value"},
		{"not json", `{"id":`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseAsset(tt.json)
			require.Error(t, err)
			assert.True(t, generic.IsClientError(err))

			var invalid *generic.InvalidAssetError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestParseAsset_UnknownMethod(t *testing.T) {
	f := NewAssetFactory()

	_, err := f.ParseAsset(`{"id":"a","name":"x","unit_cost":1,"salvage_value":0,
		"useful_life_years":1,"method":"units of production","acquisition_date":"2024-01-01"}`)

	assert.ErrorIs(t, err, depreciation.ErrUnsupportedMethod)
}

func TestParseAssets_List(t *testing.T) {
	f := NewAssetFactory()

	assets, err := f.ParseAssets(`[
		{"id":"a","name":"A","unit_cost":100,"salvage_value":0,"useful_life_years":2,"method":"SYD","acquisition_date":"2024-01-01"},
		{"id":"b","name":"B","unit_cost":100,"salvage_value":0,"useful_life_years":2,"method":"sum of years digits","acquisition_date":"2024-01-01"}
	]`)
	require.Error(t, err, "SYD is not an accepted spelling")
	assert.Nil(t, assets)

	assets, err = f.ParseAssets(`[
		{"id":"b","name":"B","unit_cost":100,"salvage_value":0,"useful_life_years":2,"method":"sum of years digits","acquisition_date":"2024-01-01"}
	]`)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, string(depreciation.SumOfYearsDigits), assets[0].Method)
}

func TestToJSON_RoundTripsThroughFromJSON(t *testing.T) {
	f := NewAssetFactory()
	asset, err := f.ParseAsset(`{"id":"van","name":"Van","unit_cost":"32000","salvage_value":"4000",
		"useful_life_years":6,"method":"declining_balance","acquisition_date":"2023-09-15"}`)
	require.NoError(t, err)

	back, err := f.FromJSON(f.ToJSON(asset))
	require.NoError(t, err)
	assert.Equal(t, asset.ID, back.ID)
	assert.True(t, asset.UnitCost.Value.Equal(back.UnitCost.Value))
	assert.Equal(t, asset.AcquisitionDate.String(), back.AcquisitionDate.String())
}
