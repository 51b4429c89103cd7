package model

import "time"

// SourceSheet identifies which workbook sheet a lead came from.
type SourceSheet string

const (
	SheetPHConfirmed     SourceSheet = "PH Confirmed Merchants"
	SheetInterested      SourceSheet = "Interested Merchants"
	SheetPHNewLeads      SourceSheet = "PH New Leads"
	SheetUSNewLeads      SourceSheet = "US New Leads"
	SheetUSInterested    SourceSheet = "US Interested Merchants"
	SheetUSConfirmed     SourceSheet = "US Confirmed Merchants"
	SheetPreviousClients SourceSheet = "Previous Clients"
)

// SheetNames lists every recognized sheet in display/import order.
// Rows from sheets outside this list are never created.
var SheetNames = []SourceSheet{
	SheetPHConfirmed,
	SheetInterested,
	SheetPHNewLeads,
	SheetUSNewLeads,
	SheetUSInterested,
	SheetUSConfirmed,
	SheetPreviousClients,
}

// KnownSheet reports whether name matches a recognized sheet tag.
func KnownSheet(name string) bool {
	for _, s := range SheetNames {
		if string(s) == name {
			return true
		}
	}
	return false
}

// Stage is a pipeline classification label derived from status notes
// and sheet provenance.
type Stage string

const (
	StageSampleReceived Stage = "Sample Received"
	StageShipped        Stage = "Shipped / In Transit"
	StageConfirmed      Stage = "Confirmed"
	StageInterested     Stage = "Interested / Replied"
	StagePreviousClient Stage = "Previous Client"
	StageContacted      Stage = "Contacted"
	StageNoResponse     Stage = "No Response"
	StageDeclined       Stage = "Declined / Closed"
	StageNewUnknown     Stage = "New / Unknown"

	// StageConverted is set when a lead is promoted to a merchant. The
	// classifier never produces it.
	StageConverted Stage = "Converted"
)

// Country is the inferred market for a lead.
type Country string

const (
	CountryPH   Country = "PH"
	CountryUS   Country = "US"
	CountryNone Country = ""
)

// Lead is one row of the sales pipeline, originating from a workbook import.
type Lead struct {
	ID          string      `json:"id"`
	SourceSheet SourceSheet `json:"source_sheet"`

	MerchantName string `json:"merchant_name"`
	Category     string `json:"category"`
	Products     string `json:"products"`
	Email        string `json:"email"`
	Contact      string `json:"contact"`
	Address      string `json:"address"`
	StatusNotes  string `json:"status_notes"`
	FB           string `json:"fb"`
	IG           string `json:"ig"`
	TikTok       string `json:"tiktok"`
	Website      string `json:"website"`
	EncodedBy    string `json:"encoded_by"`

	Result              string `json:"result,omitempty"`
	CallsUpdate         string `json:"calls_update,omitempty"`
	FollowupEmail       string `json:"followup_email,omitempty"`
	ReachViaSocmed      string `json:"reach_via_socmed,omitempty"`
	RegisteredName      string `json:"registered_name,omitempty"`
	ContactPerson       string `json:"contact_person,omitempty"`
	Designation         string `json:"designation,omitempty"`
	AuthorizedSignatory string `json:"authorized_signatory,omitempty"`

	// Derived at import time.
	Country           Country  `json:"country,omitempty"`
	City              string   `json:"city,omitempty"`
	SocialScore       int      `json:"social_score"`
	Stage             Stage    `json:"stage"`
	NeedsFollowup     bool     `json:"needs_followup"`
	LastActivityDates []string `json:"last_activity_dates,omitempty"`

	ShopifyStatus ShopifyStatus `json:"shopify_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// LeadPatch is an explicit partial update for a lead. Nil fields are left
// untouched. Only the fields enumerated here are updatable.
type LeadPatch struct {
	MerchantName  *string `json:"merchant_name,omitempty"`
	SourceSheet   *string `json:"source_sheet,omitempty"`
	Category      *string `json:"category,omitempty"`
	Products      *string `json:"products,omitempty"`
	Email         *string `json:"email,omitempty"`
	Contact       *string `json:"contact,omitempty"`
	Address       *string `json:"address,omitempty"`
	StatusNotes   *string `json:"status_notes,omitempty"`
	Result        *string `json:"result,omitempty"`
	CallsUpdate   *string `json:"calls_update,omitempty"`
	FollowupEmail *string `json:"followup_email,omitempty"`
	Country       *string `json:"country,omitempty"`
	City          *string `json:"city,omitempty"`
	FB            *string `json:"fb,omitempty"`
	IG            *string `json:"ig,omitempty"`
	TikTok        *string `json:"tiktok,omitempty"`
	Website       *string `json:"website,omitempty"`
}

// IsZero reports whether the patch carries no changes.
func (p LeadPatch) IsZero() bool {
	cols, _ := p.Columns()
	return len(cols) == 0
}

// Columns returns the column/value pairs set on the patch, in a stable
// order suitable for building an UPDATE statement.
func (p LeadPatch) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	add := func(col string, v *string) {
		if v != nil {
			cols = append(cols, col)
			vals = append(vals, *v)
		}
	}
	add("merchant_name", p.MerchantName)
	add("source_sheet", p.SourceSheet)
	add("category", p.Category)
	add("products", p.Products)
	add("email", p.Email)
	add("contact", p.Contact)
	add("address", p.Address)
	add("status_notes", p.StatusNotes)
	add("result", p.Result)
	add("calls_update", p.CallsUpdate)
	add("followup_email", p.FollowupEmail)
	add("country", p.Country)
	add("city", p.City)
	add("fb", p.FB)
	add("ig", p.IG)
	add("tiktok", p.TikTok)
	add("website", p.Website)
	return cols, vals
}
