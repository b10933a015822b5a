// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/gatherfun/middleware"
	"github.com/danielhkuo/gatherfun/models"
)

// GetRegions handles GET /regions
// With ?country= it returns that country and its location labels.
func (h *SessionHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.Regions()

	name := r.URL.Query().Get("country")
	if name == "" {
		middleware.JSONResponse(w, http.StatusOK, models.RegionsResponse{Countries: cat.Countries()})
		return
	}

	country, ok := cat.Lookup(name)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Country not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CountryResponse{
		Country:   country,
		Locations: country.Locations(),
	})
}
