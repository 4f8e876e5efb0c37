package handler

import (
	"net/http"

	"github.com/vintora/storefront-api/internal/domain/order"
)

type setStatusRequest struct {
	Status string `json:"status"`
}

type setStageRequest struct {
	Stage string `json:"stage"`
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.List(r.Context())
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toOrderDTOs(list))
}

func (h *Handler) adminSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req setStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}
	o, err := h.orders.SetStatus(r.Context(), id, status)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) adminSetStage(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req setStageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	stage, err := order.ParseStage(req.Stage)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown stage")
		return
	}
	o, err := h.orders.SetStage(r.Context(), id, stage)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toOrderDTO(o))
}
