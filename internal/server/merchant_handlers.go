package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/export"
	"github.com/pililokal/merchant-ops/internal/model"
)

// merchantRequest is the write payload for merchant create and update.
// Approved products replace the stored list wholesale on every save.
type merchantRequest struct {
	model.Merchant
	Approved []model.ProductApproval `json:"approved"`
}

func (s *Server) handleListMerchants(w http.ResponseWriter, r *http.Request) {
	merchants, err := s.store.ListMerchants(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	now := time.Now().UTC()
	summaries := make([]merchantSummary, 0, len(merchants))
	for _, m := range merchants {
		summaries = append(summaries, summarize(m, now))
	}
	writeOK(w, summaries)
}

func (s *Server) handleGetMerchant(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMerchant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, summarize(*m, time.Now().UTC()))
}

func (s *Server) handleCreateMerchant(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMerchant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "merchant name is required")
		return
	}

	sess := sessionFrom(r.Context())
	req.Merchant.LastUpdatedByID = sess.UserID
	created, err := s.store.CreateMerchant(r.Context(), &req.Merchant, req.Approved)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, created)
}

func (s *Server) handleUpdateMerchant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.store.GetMerchant(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}

	req, err := decodeMerchant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "merchant name is required")
		return
	}

	sess := sessionFrom(r.Context())
	m := req.Merchant
	m.ID = id
	m.CreatedAt = existing.CreatedAt
	m.LastUpdatedByID = sess.UserID

	// Status transitions stamp their own timestamps; the full update
	// preserves the ones already recorded.
	if m.ApprovedAt == nil {
		m.ApprovedAt = existing.ApprovedAt
	}
	if m.UploadedAt == nil {
		m.UploadedAt = existing.UploadedAt
	}
	if m.UploadedByID == "" {
		m.UploadedByID = existing.UploadedByID
	}

	if err := s.store.UpdateMerchant(r.Context(), &m, req.Approved); err != nil {
		writeErr(w, err)
		return
	}
	s.logActivity(r, id, sess.UserID, model.ActivityDataUpdate, "Merchant details updated")
	writeOK(w, nil)
}

func (s *Server) handleDeleteMerchant(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMerchant(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

// handleMerchantStatus moves a merchant through the upload pipeline.
// Reaching UPLOADED or LIVE stamps the upload time and uploader once.
func (s *Server) handleMerchantStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidShopifyStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "unknown status: "+req.Status)
		return
	}
	status := model.ShopifyStatus(req.Status)

	id := chi.URLParam(r, "id")
	sess := sessionFrom(r.Context())
	m, err := s.store.GetMerchant(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if m.ShopifyStatus == status {
		writeOK(w, nil)
		return
	}
	oldLabel := m.ShopifyStatus.Label()

	if err := s.store.UpdateMerchantStatus(r.Context(), id, status, sess.UserID); err != nil {
		writeErr(w, err)
		return
	}
	if (status == model.StatusUploaded || status == model.StatusLive) && m.UploadedAt == nil {
		now := time.Now().UTC()
		m.ShopifyStatus = status
		m.UploadedAt = &now
		m.UploadedByID = sess.UserID
		m.LastUpdatedByID = sess.UserID
		if err := s.store.UpdateMerchant(r.Context(), m, m.ApprovedProducts); err != nil {
			zap.L().Warn("stamp upload time", zap.Error(err))
		}
	}
	s.logActivity(r, id, sess.UserID, model.ActivityStatusChange,
		"Status changed from "+oldLabel+" to "+status.Label())
	writeOK(w, nil)
}

type noteRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleMerchantNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "note message is required")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.store.GetMerchant(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	sess := sessionFrom(r.Context())
	err := s.store.AppendActivity(r.Context(), &model.ActivityLog{
		MerchantID: id,
		UserID:     sess.UserID,
		Type:       model.ActivityNote,
		Message:    req.Message,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.TouchMerchant(r.Context(), id, sess.UserID); err != nil {
		zap.L().Warn("touch merchant after note", zap.Error(err))
	}
	writeOK(w, nil)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListActivity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, entries)
}

type exportRequest struct {
	IDs []string `json:"ids"`
}

// handleExportMerchants streams the selected merchants (or all, when no
// IDs are given) as an xlsx attachment.
func (s *Server) handleExportMerchants(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var merchants []model.Merchant
	var err error
	if len(req.IDs) == 0 {
		merchants, err = s.store.ListMerchants(r.Context())
	} else {
		merchants, err = s.store.ListMerchantsByIDs(r.Context(), req.IDs)
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMerchants(&buf, merchants); err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="merchants.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		zap.L().Warn("stream export", zap.Error(err))
	}
}

func (s *Server) logActivity(r *http.Request, merchantID, userID string, typ model.ActivityType, msg string) {
	err := s.store.AppendActivity(r.Context(), &model.ActivityLog{
		MerchantID: merchantID,
		UserID:     userID,
		Type:       typ,
		Message:    msg,
	})
	if err != nil {
		zap.L().Warn("append activity", zap.Error(err))
	}
}

// decodeMerchant accepts either a JSON body or an HTML form post. Form
// posts carry booleans as checkbox-style strings, parsed strictly with
// model.ParseFormBool.
func decodeMerchant(r *http.Request) (*merchantRequest, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		return merchantFromForm(r)
	}
	var req merchantRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, eris.New("invalid request body")
	}
	return &req, nil
}

func merchantFromForm(r *http.Request) (*merchantRequest, error) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		if err := r.ParseForm(); err != nil {
			return nil, eris.New("invalid form body")
		}
	}
	get := r.FormValue

	var req merchantRequest
	req.Name = get("name")
	req.Category = get("category")
	req.ContactName = get("contact_name")
	req.Email = get("email")
	req.Phone = get("phone")
	req.SourceWebsite = get("source_website")
	req.SourceFacebook = get("source_facebook")
	req.SourceInstagram = get("source_instagram")
	req.SubmissionType = model.SubmissionType(get("submission_type"))
	req.SelectionMode = model.SelectionMode(get("selection_mode"))
	req.ShopifyVendorName = get("shopify_vendor_name")
	req.ShopifyCollection = get("shopify_collection")
	req.ShopifyTags = get("shopify_tags")
	req.ShopifyPhone = get("shopify_phone")
	req.BusinessAddress = get("business_address")
	req.WarehouseAddress = get("warehouse_address")
	req.ReturnAddress = get("return_address")
	req.AddressCountry = get("address_country")
	req.AddressState = get("address_state")
	req.AddressZip = get("address_zip")

	for _, f := range []struct {
		key  string
		dest *int
	}{
		{"products_submitted_count", &req.ProductsSubmittedCount},
		{"products_uploaded_count", &req.ProductsUploadedCount},
		{"products_target_count", &req.ProductsTargetCount},
	} {
		if v := strings.TrimSpace(get(f.key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, eris.Errorf("field %s: not a number: %q", f.key, v)
			}
			*f.dest = n
		}
	}

	for _, f := range []struct {
		key  string
		dest *bool
	}{
		{"selection_confirmed", &req.SelectionConfirmed},
		{"products_extracted", &req.ProductsExtracted},
		{"products_sent_for_confirmation", &req.ProductsSentForConfirmation},
		{"merchant_approved_extracted_list", &req.MerchantApprovedExtractedList},
		{"variants_complete", &req.VariantsComplete},
		{"pricing_added", &req.PricingAdded},
		{"inventory_added", &req.InventoryAdded},
		{"sku_added", &req.SKUAdded},
		{"images_complete", &req.ImagesComplete},
		{"final_reviewed", &req.FinalReviewed},
	} {
		b, err := model.ParseFormBool(get(f.key))
		if err != nil {
			return nil, eris.Errorf("field %s: %s", f.key, err.Error())
		}
		*f.dest = b
	}

	for i, name := range r.Form["approved_product_name"] {
		url := ""
		if urls := r.Form["approved_product_url"]; i < len(urls) {
			url = urls[i]
		}
		if strings.TrimSpace(name) == "" {
			continue
		}
		req.Approved = append(req.Approved, model.ProductApproval{ProductName: name, ProductURL: url})
	}
	return &req, nil
}
