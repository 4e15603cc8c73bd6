package api

import (
	"net/http"
)

type SystemHandler struct {
	version   string
	buildTime string
}

func NewSystemHandler(version, buildTime string) *SystemHandler {
	return &SystemHandler{version: version, buildTime: buildTime}
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type versionResponse struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
}

func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{Status: "healthy", Message: "API is running"}, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, versionResponse{Version: h.version, BuildTime: h.buildTime}, http.StatusOK)
}
