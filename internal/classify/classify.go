// Package classify derives pipeline metadata for imported leads: market
// inference, stage classification, follow-up flagging, and activity-date
// extraction. Everything here is deterministic string heuristics; the match
// order is load-bearing and must not be rearranged.
package classify

import (
	"regexp"
	"strings"

	"github.com/pililokal/merchant-ops/internal/ingest"
	"github.com/pililokal/merchant-ops/internal/model"
)

// usStateRe matches a trailing ", XX" state abbreviation followed by a zip
// digit or end of string. The list covers the states that actually appear in
// the US lead sheets.
var usStateRe = regexp.MustCompile(`(?i),\s*(CA|NY|TX|FL|IL|WA|NJ|PA|OH|GA|AZ|CO|NV|OR|VA|MA|MI)\s*(\d|$)`)

// InferCountry resolves a lead's market from its address text and sheet
// provenance, in priority order: explicit US text or state abbreviation,
// explicit PH place names, US-tagged sheets, PH-tagged sheets, then a
// PH-biased default for any other non-empty address. Leads with no address
// and no sheet hint stay unset.
func InferCountry(address string, sourceSheet model.SourceSheet) model.Country {
	lower := strings.ToLower(address)

	switch {
	case strings.Contains(lower, "united states"),
		strings.Contains(lower, " usa"),
		strings.HasSuffix(lower, "usa"),
		usStateRe.MatchString(address):
		return model.CountryUS
	case strings.Contains(lower, "philippines"),
		strings.Contains(lower, "manila"),
		strings.Contains(lower, "quezon"),
		strings.Contains(lower, "cebu"):
		return model.CountryPH
	}

	switch sourceSheet {
	case model.SheetUSNewLeads, model.SheetUSInterested, model.SheetUSConfirmed:
		return model.CountryUS
	case model.SheetPHNewLeads, model.SheetPHConfirmed, model.SheetInterested:
		return model.CountryPH
	}

	if address != "" {
		return model.CountryPH
	}
	return model.CountryNone
}

// CityOf returns the address segment before the first comma, trimmed.
func CityOf(address string) string {
	city, _, _ := strings.Cut(address, ",")
	return strings.TrimSpace(city)
}

// SocialScore counts the non-blank social/website fields, 0-4.
func SocialScore(fb, ig, tiktok, website string) int {
	score := 0
	for _, v := range []string{fb, ig, tiktok, website} {
		if strings.TrimSpace(v) != "" {
			score++
		}
	}
	return score
}

// ClassifyStage labels a lead's pipeline stage from its status notes and
// result text, with sheet provenance taking precedence over free-text
// keywords. The keyword cascade is first-match-wins; its order defines the
// classifier's behavior.
func ClassifyStage(statusNotes, result string, sourceSheet model.SourceSheet) model.Stage {
	s := strings.ToLower(statusNotes + " " + result)

	switch sourceSheet {
	case model.SheetPHConfirmed:
		if strings.Contains(s, "sample") && strings.Contains(s, "received") {
			return model.StageSampleReceived
		}
		if strings.Contains(s, "shipped") || strings.Contains(s, "lbc") {
			return model.StageShipped
		}
		return model.StageConfirmed
	case model.SheetUSConfirmed:
		return model.StageConfirmed
	case model.SheetInterested, model.SheetUSInterested:
		return model.StageInterested
	case model.SheetPreviousClients:
		return model.StagePreviousClient
	}

	switch {
	case strings.Contains(s, "sample") && strings.Contains(s, "received"):
		return model.StageSampleReceived
	case strings.Contains(s, "confirmed") || strings.Contains(s, "will ship"):
		return model.StageConfirmed
	case strings.Contains(s, "interested") || strings.Contains(s, "replied") || strings.Contains(s, "zoom meeting"):
		return model.StageInterested
	case strings.Contains(s, "email sent") || strings.Contains(s, "called"):
		return model.StageContacted
	case strings.Contains(s, "no response") || strings.Contains(s, "no answer"):
		return model.StageNoResponse
	case strings.Contains(s, "declined") || strings.Contains(s, "closed"):
		return model.StageDeclined
	default:
		return model.StageNewUnknown
	}
}

// followupPhrases flag a lead as needing staff follow-up when any appears in
// its status notes or calls update.
var followupPhrases = []string{
	"no answer",
	"cannot be reached",
	"no response",
	"awaiting",
	"will call again",
	"not answering",
	"busy",
	"called back",
}

// NeedsFollowup reports whether the lead's notes mention an unresolved
// contact attempt.
func NeedsFollowup(statusNotes, callsUpdate string) bool {
	combined := strings.ToLower(statusNotes + " " + callsUpdate)
	for _, phrase := range followupPhrases {
		if strings.Contains(combined, phrase) {
			return true
		}
	}
	return false
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`),
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2}\b`),
}

// ExtractDates pulls date-like substrings ("12/5", "3/14/24", "Aug 9") out
// of free text, deduplicated in order of first occurrence.
func ExtractDates(text string) []string {
	var dates []string
	seen := make(map[string]bool)
	for _, p := range datePatterns {
		for _, m := range p.FindAllString(text, -1) {
			if !seen[m] {
				seen[m] = true
				dates = append(dates, m)
			}
		}
	}
	return dates
}

// Enrich assembles a full Lead from a raw workbook row, computing every
// derived field.
func Enrich(raw ingest.RawLead) model.Lead {
	statusNotes := raw.Get("statusNotes")
	address := raw.Get("address")
	result := raw.Get("result")
	callsUpdate := raw.Get("callsUpdate")
	fb := raw.Get("fb")
	ig := raw.Get("ig")
	tiktok := raw.Get("tiktok")
	website := raw.Get("website")

	return model.Lead{
		SourceSheet:         raw.SourceSheet,
		MerchantName:        raw.Get("merchantName"),
		Category:            raw.Get("category"),
		Products:            raw.Get("products"),
		Email:               raw.Get("email"),
		Contact:             raw.Get("contact"),
		Address:             address,
		StatusNotes:         statusNotes,
		FB:                  fb,
		IG:                  ig,
		TikTok:              tiktok,
		Website:             website,
		EncodedBy:           raw.Get("encodedBy"),
		Result:              result,
		CallsUpdate:         callsUpdate,
		FollowupEmail:       raw.Get("followupEmail"),
		ReachViaSocmed:      raw.Get("reachViaSocmed"),
		RegisteredName:      raw.Get("registeredName"),
		ContactPerson:       raw.Get("contactPerson"),
		Designation:         raw.Get("designation"),
		AuthorizedSignatory: raw.Get("authorizedSignatory"),

		Country:           InferCountry(address, raw.SourceSheet),
		City:              CityOf(address),
		SocialScore:       SocialScore(fb, ig, tiktok, website),
		Stage:             ClassifyStage(statusNotes, result, raw.SourceSheet),
		NeedsFollowup:     NeedsFollowup(statusNotes, callsUpdate),
		LastActivityDates: ExtractDates(statusNotes + " " + callsUpdate),

		ShopifyStatus: model.StatusNotStarted,
	}
}

// EnrichAll classifies a batch of raw rows in input order.
func EnrichAll(raws []ingest.RawLead) []model.Lead {
	leads := make([]model.Lead, len(raws))
	for i, raw := range raws {
		leads[i] = Enrich(raw)
	}
	return leads
}
