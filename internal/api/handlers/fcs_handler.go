package handlers

import (
	"net/http"
	"time"

	"patvault/internal/pkg/errors"
)

// FCSHandler serves flow cytometry resource endpoints. The data is
// canned; these routes exist to exercise the fcs scope ladder
// (analyze > write > read), including the analyze action which does
// not sit on the read/write chain of other resources.
type FCSHandler struct{}

func NewFCSHandler() *FCSHandler {
	return &FCSHandler{}
}

type FCSParameter struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Range   int    `json:"range"`
	Voltage int    `json:"voltage"`
}

func (h *FCSHandler) Parameters(w http.ResponseWriter, r *http.Request) {
	fileID := paramFrom(r, "file_id")

	params := []FCSParameter{
		{Name: "FSC-A", Label: "Forward Scatter", Range: 262144, Voltage: 350},
		{Name: "SSC-A", Label: "Side Scatter", Range: 262144, Voltage: 420},
		{Name: "FITC-A", Label: "CD3 FITC", Range: 262144, Voltage: 510},
		{Name: "PE-A", Label: "CD19 PE", Range: 262144, Voltage: 495},
	}
	errors.WriteSuccess(w, http.StatusOK, map[string]any{
		"file_id":    fileID,
		"parameters": params,
	})
}

func (h *FCSHandler) Events(w http.ResponseWriter, r *http.Request) {
	fileID := paramFrom(r, "file_id")

	errors.WriteSuccess(w, http.StatusOK, map[string]any{
		"file_id":     fileID,
		"event_count": 250000,
		"sample": []map[string]float64{
			{"FSC-A": 104523.5, "SSC-A": 48211.2, "FITC-A": 1823.0, "PE-A": 302.7},
			{"FSC-A": 98877.1, "SSC-A": 51040.9, "FITC-A": 15.4, "PE-A": 7421.3},
		},
	})
}

func (h *FCSHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	fileID := paramFrom(r, "file_id")

	errors.WriteSuccess(w, http.StatusOK, map[string]any{
		"file_id":     fileID,
		"analyzed_at": time.Now().Unix(),
		"populations": []map[string]any{
			{"name": "Lymphocytes", "fraction": 0.312},
			{"name": "Monocytes", "fraction": 0.071},
			{"name": "Granulocytes", "fraction": 0.552},
		},
	})
}
