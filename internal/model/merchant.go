package model

import "time"

// SubmissionType describes how a merchant's product list was sourced.
type SubmissionType string

const (
	SubmissionWebsiteExtraction SubmissionType = "WEBSITE_EXTRACTION"
	SubmissionFBIGExtraction    SubmissionType = "FB_IG_EXTRACTION"
	SubmissionMerchantSelected  SubmissionType = "MERCHANT_SELECTED"
)

// SelectionMode describes which products a merchant wants uploaded.
type SelectionMode string

const (
	SelectionAllProducts  SelectionMode = "ALL_PRODUCTS"
	SelectionSelectedOnly SelectionMode = "SELECTED_ONLY"
)

// ShopifyStatus tracks a merchant's storefront progress. The order below is
// the conceptual progression; the system does not enforce monotonicity.
type ShopifyStatus string

const (
	StatusNotStarted ShopifyStatus = "NOT_STARTED"
	StatusInProgress ShopifyStatus = "IN_PROGRESS"
	StatusUploaded   ShopifyStatus = "UPLOADED"
	StatusLive       ShopifyStatus = "LIVE"
)

// StatusLabels maps shopify statuses to their human-readable display form.
var StatusLabels = map[ShopifyStatus]string{
	StatusNotStarted: "Not Started",
	StatusInProgress: "In Progress",
	StatusUploaded:   "Uploaded",
	StatusLive:       "Live",
}

// Label returns the display label for a status, falling back to the raw value.
func (s ShopifyStatus) Label() string {
	if l, ok := StatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ValidShopifyStatus reports whether s is one of the four known statuses.
func ValidShopifyStatus(s string) bool {
	_, ok := StatusLabels[ShopifyStatus(s)]
	return ok
}

// Merchant is a confirmed business being onboarded to the sales platform.
type Merchant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	ContactName string `json:"contact_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`

	SourceWebsite   string `json:"source_website,omitempty"`
	SourceFacebook  string `json:"source_facebook,omitempty"`
	SourceInstagram string `json:"source_instagram,omitempty"`

	SubmissionType    SubmissionType `json:"submission_type"`
	SelectionMode     SelectionMode  `json:"selection_mode"`
	SelectionConfirmed bool          `json:"selection_confirmed"`

	ShopifyStatus     ShopifyStatus `json:"shopify_status"`
	ShopifyVendorName string        `json:"shopify_vendor_name,omitempty"`
	ShopifyCollection string        `json:"shopify_collection,omitempty"`
	ShopifyTags       string        `json:"shopify_tags,omitempty"`
	ShopifyPhone      string        `json:"shopify_phone,omitempty"`

	ProductsSubmittedCount int `json:"products_submitted_count"`
	ProductsUploadedCount  int `json:"products_uploaded_count"`
	ProductsTargetCount    int `json:"products_target_count"`

	ProductsExtracted             bool `json:"products_extracted"`
	ProductsSentForConfirmation   bool `json:"products_sent_for_confirmation"`
	MerchantApprovedExtractedList bool `json:"merchant_approved_extracted_list"`

	// Upload checklist.
	VariantsComplete bool `json:"variants_complete"`
	PricingAdded     bool `json:"pricing_added"`
	InventoryAdded   bool `json:"inventory_added"`
	SKUAdded         bool `json:"sku_added"`
	ImagesComplete   bool `json:"images_complete"`
	FinalReviewed    bool `json:"final_reviewed"`

	BusinessAddress  string `json:"business_address,omitempty"`
	WarehouseAddress string `json:"warehouse_address,omitempty"`
	ReturnAddress    string `json:"return_address,omitempty"`
	AddressCountry   string `json:"address_country,omitempty"`
	AddressState     string `json:"address_state,omitempty"`
	AddressZip       string `json:"address_zip,omitempty"`

	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`

	UploadedByID    string    `json:"uploaded_by_id,omitempty"`
	LastUpdatedByID string    `json:"last_updated_by_id,omitempty"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`
	CreatedAt       time.Time `json:"created_at"`

	// ApprovedProducts is populated on single-merchant reads;
	// ApprovedCount is populated on all reads and feeds completion scoring.
	ApprovedProducts []ProductApproval `json:"approved_products,omitempty"`
	ApprovedCount    int               `json:"approved_count"`
}

// ChecklistCount returns how many of the five upload checklist items are done.
// Final review is scored separately.
func (m *Merchant) ChecklistCount() int {
	n := 0
	for _, done := range []bool{
		m.VariantsComplete,
		m.PricingAdded,
		m.InventoryAdded,
		m.SKUAdded,
		m.ImagesComplete,
	} {
		if done {
			n++
		}
	}
	return n
}

// ProductApproval is one merchant-approved product, replaced wholesale on
// each merchant save.
type ProductApproval struct {
	ID          string `json:"id"`
	MerchantID  string `json:"merchant_id"`
	ProductName string `json:"product_name"`
	ProductURL  string `json:"product_url,omitempty"`
}
