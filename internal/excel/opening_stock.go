package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// OpeningStockRow is one workbook line: a product plus its opening quantity
// and acquisition cost.
type OpeningStockRow struct {
	SKU      string
	Name     string
	Quantity int
	UnitCost decimal.Decimal
	Price    decimal.Decimal
}

var headerAliases = map[string]string{
	"sku":       "sku",
	"code":      "sku",
	"codigo":    "sku",
	"código":    "sku",
	"name":      "name",
	"product":   "name",
	"nombre":    "name",
	"producto":  "name",
	"quantity":  "quantity",
	"qty":       "quantity",
	"cantidad":  "quantity",
	"unit_cost": "unit_cost",
	"cost":      "unit_cost",
	"costo":     "unit_cost",
	"price":     "price",
	"precio":    "price",
}

// ParseOpeningStock reads the first sheet of a workbook into opening-stock
// rows. The first row must be a header; unknown columns are ignored, blank
// rows are skipped.
func ParseOpeningStock(reader io.Reader) ([]OpeningStockRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("excel file has no data rows")
	}

	columns := map[string]int{}
	for idx, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := headerAliases[key]; ok {
			columns[canonical] = idx
		}
	}
	for _, required := range []string{"sku", "name", "quantity", "unit_cost"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := make([]OpeningStockRow, 0, len(rows)-1)
	for rowNo, row := range rows[1:] {
		sku := cellAt(row, columns["sku"])
		name := cellAt(row, columns["name"])
		if sku == "" && name == "" {
			continue
		}
		if sku == "" || name == "" {
			return nil, fmt.Errorf("row %d: sku and name are required", rowNo+2)
		}

		quantity, err := strconv.Atoi(cellAt(row, columns["quantity"]))
		if err != nil || quantity <= 0 {
			return nil, fmt.Errorf("row %d: invalid quantity", rowNo+2)
		}
		unitCost, err := parseMoneyCell(cellAt(row, columns["unit_cost"]))
		if err != nil || unitCost.IsNegative() {
			return nil, fmt.Errorf("row %d: invalid unit cost", rowNo+2)
		}

		price := decimal.Zero
		if idx, ok := columns["price"]; ok {
			if raw := cellAt(row, idx); raw != "" {
				if price, err = parseMoneyCell(raw); err != nil || price.IsNegative() {
					return nil, fmt.Errorf("row %d: invalid price", rowNo+2)
				}
			}
		}

		result = append(result, OpeningStockRow{
			SKU:      sku,
			Name:     name,
			Quantity: quantity,
			UnitCost: unitCost,
			Price:    price,
		})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("excel file has no data rows")
	}
	return result, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseMoneyCell(raw string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return decimal.NewFromString(normalized)
}
