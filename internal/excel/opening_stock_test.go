package excel_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"backend/internal/excel"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()

	for idx, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, idx+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := file.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseOpeningStock(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"Codigo", "Nombre", "Cantidad", "Costo", "Precio"},
		[]interface{}{"CAM-001", "Camiseta blanca", 10, "30.50", "50"},
		[]interface{}{"MED-001", "Medias x3", 4, "10", ""},
	)

	rows, err := excel.ParseOpeningStock(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "CAM-001", rows[0].SKU)
	assert.Equal(t, "Camiseta blanca", rows[0].Name)
	assert.Equal(t, 10, rows[0].Quantity)
	assert.True(t, rows[0].UnitCost.Equal(decimal.RequireFromString("30.50")))
	assert.True(t, rows[0].Price.Equal(decimal.RequireFromString("50")))

	assert.True(t, rows[1].Price.IsZero(), "missing price defaults to zero")
}

func TestParseOpeningStock_EnglishHeaders(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"SKU", "Name", "Qty", "Cost", "Price"},
		[]interface{}{"GOR-001", "Gorra", 2, "15", "35"},
	)

	rows, err := excel.ParseOpeningStock(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "GOR-001", rows[0].SKU)
}

func TestParseOpeningStock_SkipsBlankRows(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"sku", "nombre", "cantidad", "costo"},
		[]interface{}{"", "", "", ""},
		[]interface{}{"CAM-001", "Camiseta", 1, "30"},
	)

	rows, err := excel.ParseOpeningStock(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestParseOpeningStock_Rejections(t *testing.T) {
	cases := []struct {
		name string
		rows [][]interface{}
	}{
		{
			"missing cost column",
			[][]interface{}{
				{"sku", "nombre", "cantidad"},
				{"CAM-001", "Camiseta", 1},
			},
		},
		{
			"zero quantity",
			[][]interface{}{
				{"sku", "nombre", "cantidad", "costo"},
				{"CAM-001", "Camiseta", 0, "30"},
			},
		},
		{
			"negative cost",
			[][]interface{}{
				{"sku", "nombre", "cantidad", "costo"},
				{"CAM-001", "Camiseta", 1, "-30"},
			},
		},
		{
			"sku without name",
			[][]interface{}{
				{"sku", "nombre", "cantidad", "costo"},
				{"CAM-001", "", 1, "30"},
			},
		},
		{
			"header only",
			[][]interface{}{
				{"sku", "nombre", "cantidad", "costo"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := workbook(t, tc.rows...)
			_, err := excel.ParseOpeningStock(buf)
			assert.Error(t, err)
		})
	}
}
