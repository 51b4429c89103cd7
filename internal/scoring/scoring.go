// Package scoring computes read-time derived metrics for merchants:
// address completeness, the weighted onboarding completion percentage, and
// the needs-attention flag. Nothing here is persisted; the dashboard
// recomputes these on every render.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/pililokal/merchant-ops/internal/model"
)

// staleAfter is how long a non-live merchant may go without an update
// before it is flagged for attention.
const staleAfter = 7 * 24 * time.Hour

// IsAddressComplete reports whether all five shipping-address fields are
// non-blank after trimming. Warehouse address is optional.
func IsAddressComplete(m *model.Merchant) bool {
	for _, f := range []string{
		m.BusinessAddress,
		m.ReturnAddress,
		m.AddressCountry,
		m.AddressState,
		m.AddressZip,
	} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// CompletionPercent scores onboarding progress 0-100: address 20%, product
// upload ratio 40%, the five-item checklist 30%, final review 10%.
// approvedCount is the number of approved-product rows, consulted as the
// upload target for SELECTED_ONLY merchants with no explicit target.
func CompletionPercent(m *model.Merchant, approvedCount int) int {
	total := 0.0

	if IsAddressComplete(m) {
		total += 20
	}

	target := uploadTarget(m, approvedCount)
	ratio := math.Min(float64(m.ProductsUploadedCount)/float64(target), 1)
	total += ratio * 40

	total += float64(m.ChecklistCount()) / 5 * 30

	if m.FinalReviewed {
		total += 10
	}

	return int(math.Round(math.Min(total, 100)))
}

// uploadTarget picks the denominator for the upload-progress term: the
// explicit target when set, otherwise the approved-product count (selected
// mode only), otherwise the submitted count, otherwise 1 so a merchant with
// no counts at all doesn't divide by zero.
func uploadTarget(m *model.Merchant, approvedCount int) int {
	if m.ProductsTargetCount > 0 {
		return m.ProductsTargetCount
	}
	if m.SelectionMode == model.SelectionSelectedOnly && approvedCount > 0 {
		return approvedCount
	}
	if m.ProductsSubmittedCount > 0 {
		return m.ProductsSubmittedCount
	}
	return 1
}

// NeedsAttention flags a merchant for staff follow-up: any merchant with an
// incomplete address, or one that has gone a week without updates while not
// yet live.
func NeedsAttention(m *model.Merchant, addressComplete bool, now time.Time) bool {
	if !addressComplete {
		return true
	}
	if now.Sub(m.LastUpdatedAt) > staleAfter && m.ShopifyStatus != model.StatusLive {
		return true
	}
	return false
}
