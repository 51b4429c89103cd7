// Package export renders merchant records back out as spreadsheets for
// sharing outside the dashboard.
package export

import (
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/pililokal/merchant-ops/internal/model"
	"github.com/pililokal/merchant-ops/internal/scoring"
)

var merchantHeaders = []string{
	"Name", "Category", "Contact", "Email", "Phone",
	"Shopify Status", "Completion %", "Products Uploaded", "Products Target",
	"Address Complete", "Business Address", "Country", "State", "Zip",
	"Approved At", "Uploaded At", "Last Updated",
}

// WriteMerchants renders the merchant roster to a single-sheet workbook.
func WriteMerchants(w io.Writer, merchants []model.Merchant) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Merchants")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range merchantHeaders {
		header.AddCell().SetString(h)
	}

	for i := range merchants {
		m := &merchants[i]
		addressComplete := scoring.IsAddressComplete(m)
		row := sheet.AddRow()
		row.AddCell().SetString(m.Name)
		row.AddCell().SetString(m.Category)
		row.AddCell().SetString(m.ContactName)
		row.AddCell().SetString(m.Email)
		row.AddCell().SetString(m.Phone)
		row.AddCell().SetString(m.ShopifyStatus.Label())
		row.AddCell().SetString(strconv.Itoa(scoring.CompletionPercent(m, m.ApprovedCount)))
		row.AddCell().SetString(strconv.Itoa(m.ProductsUploadedCount))
		row.AddCell().SetString(strconv.Itoa(m.ProductsTargetCount))
		row.AddCell().SetString(yesNo(addressComplete))
		row.AddCell().SetString(m.BusinessAddress)
		row.AddCell().SetString(m.AddressCountry)
		row.AddCell().SetString(m.AddressState)
		row.AddCell().SetString(m.AddressZip)
		row.AddCell().SetString(formatTime(m.ApprovedAt))
		row.AddCell().SetString(formatTime(m.UploadedAt))
		row.AddCell().SetString(m.LastUpdatedAt.Format("2006-01-02 15:04"))
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
