package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"siteauditor/internal/model"
	"siteauditor/internal/notify"
	"siteauditor/internal/service"
	"siteauditor/pkg/response"
)

type auditRequest struct {
	URL     json.RawMessage `json:"url"`
	Options service.Options `json:"options"`
}

// AuditHandler serves the audit endpoint and fires the optional downstream
// webhook once a batch has been assembled.
type AuditHandler struct {
	service *service.Service
	webhook *notify.Webhook
}

func NewAuditHandler(svc *service.Service, hook *notify.Webhook) *AuditHandler {
	return &AuditHandler{service: svc, webhook: hook}
}

func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	w.Header().Set("Content-Type", "application/json")
	response.Success(w, resp, "")
}

// Audit accepts {"url": string | [string], "options": {"enrichment": bool}}.
// A single URL answers with one result or one error; a list answers with
// per-origin outcomes so one bad origin never hides its neighbours.
func (h *AuditHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	targets, single, err := parseTargets(req.URL)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if single {
		h.auditSingle(w, r, targets[0], req.Options)
		return
	}
	h.auditBatch(w, r, targets, req.Options)
}

func (h *AuditHandler) auditSingle(w http.ResponseWriter, r *http.Request, target string, opts service.Options) {
	result, err := h.service.AuditOne(r.Context(), target, opts)
	if err != nil {
		response.Error(w, statusFor(err), fmt.Sprintf("failed to audit %s: %v", target, err))
		return
	}

	h.notify([]model.Outcome{{Target: result.Target, Result: result}})
	w.Header().Set("Content-Type", "application/json")
	response.Success(w, result, "")
}

func (h *AuditHandler) auditBatch(w http.ResponseWriter, r *http.Request, targets []string, opts service.Options) {
	outcomes, err := h.service.AuditBatch(r.Context(), targets, opts)
	if err != nil {
		response.Error(w, statusFor(err), fmt.Sprintf("failed to audit batch: %v", err))
		return
	}

	h.notify(outcomes)
	w.Header().Set("Content-Type", "application/json")
	response.Success(w, outcomes, "")
}

// notify posts the outcomes downstream without holding up the response.
// The send must survive the request ending, hence the detached context.
func (h *AuditHandler) notify(outcomes []model.Outcome) {
	if h.webhook == nil || !h.webhook.Enabled() {
		return
	}
	go h.webhook.Send(context.Background(), outcomes)
}

func parseTargets(raw json.RawMessage) (targets []string, single bool, err error) {
	if len(raw) == 0 {
		return nil, false, errors.New("missing 'url' field")
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, true, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, false, nil
	}

	return nil, false, errors.New("'url' must be a string or a list of strings")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidOrigin), errors.Is(err, service.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrHomeUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
