// Package report derives the dashboard's pipeline KPI snapshot from the
// persisted lead table.
package report

import (
	"strings"

	"github.com/pililokal/merchant-ops/internal/model"
)

// KPIs are the headline pipeline counts shown on the dashboard.
type KPIs struct {
	Total               int `json:"total"`
	PHConfirmed         int `json:"ph_confirmed"`
	USConfirmed         int `json:"us_confirmed"`
	SampleReceived      int `json:"sample_received"`
	ShippedInTransit    int `json:"shipped_in_transit"`
	Interested          int `json:"interested"`
	USLeads             int `json:"us_leads"`
	PHLeads             int `json:"ph_leads"`
	PreviousClients     int `json:"previous_clients"`
	AwaitingResponse    int `json:"awaiting_response"`
	NoAnswerUnreachable int `json:"no_answer_unreachable"`
}

// Snapshot groups leads by sheet in fixed order and carries the KPI counts.
type Snapshot struct {
	BySheet map[model.SourceSheet][]model.Lead `json:"by_sheet"`
	KPIs    KPIs                               `json:"kpis"`
}

// BuildSnapshot computes the dashboard snapshot from the full lead table.
func BuildSnapshot(leads []model.Lead) *Snapshot {
	bySheet := make(map[model.SourceSheet][]model.Lead, len(model.SheetNames))
	for _, name := range model.SheetNames {
		bySheet[name] = []model.Lead{}
	}
	for _, l := range leads {
		if _, ok := bySheet[l.SourceSheet]; ok {
			bySheet[l.SourceSheet] = append(bySheet[l.SourceSheet], l)
		}
	}

	phConfirmed := bySheet[model.SheetPHConfirmed]
	usConfirmedRows := bySheet[model.SheetUSConfirmed]
	usLeads := bySheet[model.SheetUSNewLeads]

	// Before the US Confirmed sheet existed, confirmed US merchants were
	// tracked via the result column on US New Leads.
	usConfirmed := len(usConfirmedRows)
	if usConfirmed == 0 {
		for _, l := range usLeads {
			if strings.TrimSpace(strings.ToLower(l.Result)) == "confirmed" {
				usConfirmed++
			}
		}
	}

	k := KPIs{
		Total:           len(leads),
		PHConfirmed:     len(phConfirmed),
		USConfirmed:     usConfirmed,
		Interested:      len(bySheet[model.SheetInterested]),
		USLeads:         len(usLeads),
		PHLeads:         len(bySheet[model.SheetPHNewLeads]),
		PreviousClients: len(bySheet[model.SheetPreviousClients]),
	}

	for _, l := range phConfirmed {
		s := statusLower(l)
		if strings.Contains(s, "sample") && strings.Contains(s, "received") {
			k.SampleReceived++
		}
		if strings.Contains(s, "shipped") || strings.Contains(s, "lbc") {
			k.ShippedInTransit++
		}
	}
	for _, l := range leads {
		s := statusLower(l)
		if strings.Contains(s, "awaiting response") {
			k.AwaitingResponse++
		}
		if strings.Contains(s, "no answer") ||
			strings.Contains(s, "cannot be reached") ||
			strings.Contains(s, "not answering") {
			k.NoAnswerUnreachable++
		}
	}

	return &Snapshot{BySheet: bySheet, KPIs: k}
}

func statusLower(l model.Lead) string {
	return strings.ToLower(l.StatusNotes + l.CallsUpdate)
}
