package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/classify"
	"github.com/pililokal/merchant-ops/internal/ingest"
	"github.com/pililokal/merchant-ops/internal/model"
	"github.com/pililokal/merchant-ops/internal/store"
)

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.ListLeads(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, leads)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, lead)
}

// handleImportLeads reads a workbook and replaces the entire lead table
// with its classified rows. The workbook comes from a multipart upload if
// one is attached, otherwise from the configured path.
func (s *Server) handleImportLeads(w http.ResponseWriter, r *http.Request) {
	path := s.workbookPath

	if err := r.ParseMultipartForm(32 << 20); err == nil {
		file, _, ferr := r.FormFile("workbook")
		if ferr == nil {
			defer file.Close()
			tmp, terr := os.CreateTemp("", "leads-*.xlsx")
			if terr != nil {
				writeErr(w, eris.Wrap(terr, "server: temp workbook"))
				return
			}
			defer os.Remove(tmp.Name())
			if _, cerr := io.Copy(tmp, file); cerr != nil {
				tmp.Close()
				writeErr(w, eris.Wrap(cerr, "server: save uploaded workbook"))
				return
			}
			tmp.Close()
			path = tmp.Name()
		}
	}
	if path == "" {
		writeError(w, http.StatusBadRequest, "no workbook uploaded and no workbook path configured")
		return
	}

	wb, err := ingest.ReadWorkbook(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read workbook: "+filepath.Base(path))
		zap.L().Warn("read workbook", zap.Error(err))
		return
	}
	leads := classify.EnrichAll(wb.Rows)
	n, err := s.store.ReplaceLeads(r.Context(), leads)
	if err != nil {
		writeErr(w, err)
		return
	}
	zap.L().Info("leads imported",
		zap.Int("count", n),
		zap.Any("by_sheet", wb.BySheet))
	writeOK(w, map[string]any{"imported": n, "by_sheet": wb.BySheet})
}

func (s *Server) handlePatchLead(w http.ResponseWriter, r *http.Request) {
	var patch model.LeadPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.IsZero() {
		writeError(w, http.StatusBadRequest, "no updatable fields in request")
		return
	}
	if err := s.store.UpdateLead(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, nil)
}

// convertLead turns one lead into a merchant and marks the lead converted.
// Already-converted leads are reported as skipped, not errors.
func (s *Server) convertLead(r *http.Request, leadID, userID string) (merchant *model.Merchant, skipped bool, err error) {
	lead, err := s.store.GetLead(r.Context(), leadID)
	if err != nil {
		return nil, false, err
	}
	if lead.Stage == model.StageConverted {
		return nil, true, nil
	}

	m := &model.Merchant{
		Name:            lead.MerchantName,
		Category:        lead.Category,
		ContactName:     lead.ContactPerson,
		Email:           lead.Email,
		Phone:           lead.Contact,
		SourceWebsite:   lead.Website,
		SourceFacebook:  lead.FB,
		SourceInstagram: lead.IG,
		BusinessAddress: lead.Address,
		LastUpdatedByID: userID,
	}
	created, err := s.store.CreateMerchant(r.Context(), m, nil)
	if err != nil {
		return nil, false, err
	}
	if err := s.store.UpdateLeadStage(r.Context(), leadID, model.StageConverted); err != nil {
		return nil, false, err
	}
	logErr := s.store.AppendActivity(r.Context(), &model.ActivityLog{
		MerchantID: created.ID,
		UserID:     userID,
		Type:       model.ActivityNote,
		Message:    fmt.Sprintf("Converted from lead %q (%s)", lead.MerchantName, lead.SourceSheet),
	})
	if logErr != nil {
		zap.L().Warn("append conversion activity", zap.Error(logErr))
	}
	return created, false, nil
}

func (s *Server) handleConvertLead(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	m, skipped, err := s.convertLead(r, chi.URLParam(r, "id"), sess.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if skipped {
		writeError(w, http.StatusConflict, "lead is already converted")
		return
	}
	writeOK(w, m)
}

type bulkConvertRequest struct {
	IDs []string `json:"ids"`
}

type bulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// bulkConvertResult reports per-item outcomes: how many merchants were
// added, how many leads were skipped as already converted, and which IDs
// failed outright.
type bulkConvertResult struct {
	Added    int           `json:"added"`
	Skipped  int           `json:"skipped"`
	Failures []bulkFailure `json:"failures,omitempty"`
}

func (s *Server) handleBulkConvert(w http.ResponseWriter, r *http.Request) {
	var req bulkConvertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "no lead ids given")
		return
	}

	sess := sessionFrom(r.Context())
	var result bulkConvertResult
	for _, id := range req.IDs {
		_, skipped, err := s.convertLead(r, id, sess.UserID)
		switch {
		case err != nil:
			msg := "conversion failed"
			if eris.Is(err, store.ErrNotFound) {
				msg = "lead not found"
			}
			result.Failures = append(result.Failures, bulkFailure{ID: id, Error: msg})
		case skipped:
			result.Skipped++
		default:
			result.Added++
		}
	}
	writeOK(w, result)
}
