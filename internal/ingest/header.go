package ingest

import "strings"

// colAliases maps raw workbook column headers onto canonical field keys.
// The sheets this system ingests were maintained by hand across several
// teams, so the same column shows up under many spellings.
var colAliases = map[string]string{
	"Merchant Name":        "merchantName",
	"Merchant":             "merchantName",
	"Category":             "category",
	"Products":             "products",
	"Email":                "email",
	"Contact":              "contact",
	"Phone":                "contact",
	"Address":              "address",
	"Status Notes":         "statusNotes",
	"Status":               "statusNotes",
	"FB":                   "fb",
	"Fb":                   "fb",
	"IG":                   "ig",
	"Ig":                   "ig",
	"TikTok":               "tiktok",
	"Website":              "website",
	"Encoded By":           "encodedBy",
	"Result":               "result",
	"Results":              "result",
	"Outcome":              "result",
	"Call Result":          "result",
	"Follow-up Result":     "result",
	"Lead Result":          "result",
	"Calls Update":         "callsUpdate",
	"Followup Email":       "followupEmail",
	"Reach Via Socmed":     "reachViaSocmed",
	"Registered Name":      "registeredName",
	"Contact Person":       "contactPerson",
	"Designation":          "designation",
	"Authorized Signatory": "authorizedSignatory",
}

// NormalizeHeader resolves a raw column header to its canonical field key.
// Lookup order: exact alias hit, case-insensitive alias hit, then the
// trimmed original header unchanged. Unmapped columns keep their own name
// and are dropped downstream because no consumer reads them.
func NormalizeHeader(h string) string {
	trimmed := stripZeroWidth(strings.TrimSpace(h))
	if alias, ok := colAliases[trimmed]; ok {
		return alias
	}
	lower := strings.ToLower(trimmed)
	for k, alias := range colAliases {
		if strings.ToLower(k) == lower {
			return alias
		}
	}
	return trimmed
}

func stripZeroWidth(s string) string {
	return strings.ReplaceAll(s, "​", "")
}
