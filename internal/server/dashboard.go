package server

import (
	"net/http"
	"time"

	"github.com/pililokal/merchant-ops/internal/model"
	"github.com/pililokal/merchant-ops/internal/report"
	"github.com/pililokal/merchant-ops/internal/scoring"
)

// merchantSummary is a merchant row with its read-time derived fields.
// Completion and attention are never persisted; they are computed on every
// read so stale rows age into the attention list on their own.
type merchantSummary struct {
	model.Merchant
	CompletionPercent int  `json:"completion_percent"`
	AddressComplete   bool `json:"address_complete"`
	NeedsAttention    bool `json:"needs_attention"`
}

func summarize(m model.Merchant, now time.Time) merchantSummary {
	addressComplete := scoring.IsAddressComplete(&m)
	return merchantSummary{
		Merchant:          m,
		CompletionPercent: scoring.CompletionPercent(&m, m.ApprovedCount),
		AddressComplete:   addressComplete,
		NeedsAttention:    scoring.NeedsAttention(&m, addressComplete, now),
	}
}

type dashboardResponse struct {
	Leads     *report.Snapshot  `json:"leads"`
	Merchants []merchantSummary `json:"merchants"`
	Attention []merchantSummary `json:"attention"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.ListLeads(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	merchants, err := s.store.ListMerchants(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}

	now := time.Now().UTC()
	summaries := make([]merchantSummary, 0, len(merchants))
	var attention []merchantSummary
	for _, m := range merchants {
		sum := summarize(m, now)
		summaries = append(summaries, sum)
		if sum.NeedsAttention {
			attention = append(attention, sum)
		}
	}

	writeOK(w, dashboardResponse{
		Leads:     report.BuildSnapshot(leads),
		Merchants: summaries,
		Attention: attention,
	})
}
