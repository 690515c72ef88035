package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/san-kum/leaklab/internal/analysis"
	"github.com/san-kum/leaklab/internal/assistant"
	"github.com/san-kum/leaklab/internal/circuit"
	"github.com/san-kum/leaklab/internal/ledger"
	"github.com/san-kum/leaklab/internal/report"
)

type switchRequest struct {
	Closed *bool `json:"closed"`
}

type calculateResponse struct {
	Reading  ledger.Reading `json:"reading"`
	Deferred bool           `json:"deferred"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type chatHistoryResponse struct {
	Messages []assistant.Message `json:"messages"`
	Busy     bool                `json:"busy"`
}

type fieldError struct {
	Error string  `json:"error"`
	Field string  `json:"field"`
	Value float64 `json:"value"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.session.Advance()
	JSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	JSON(w, http.StatusOK, s.session.Snapshot())
}

// handleSwitch sets the key to {"closed": bool}, or toggles it when the body
// is empty.
func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	sw, err := circuit.ParseSwitch(chi.URLParam(r, "key"))
	if err != nil {
		Error(w, http.StatusNotFound, err.Error())
		return
	}

	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Closed == nil {
		s.session.Toggle(sw)
	} else {
		s.session.SetSwitch(sw, *req.Closed)
	}
	JSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleStopwatch(w http.ResponseWriter, r *http.Request) {
	watch := s.session.Stopwatch()
	switch chi.URLParam(r, "action") {
	case "start":
		watch.Start()
	case "stop":
		watch.Stop()
	case "toggle":
		watch.Toggle()
	case "reset":
		watch.Reset()
	default:
		Error(w, http.StatusBadRequest, "action must be start, stop, toggle or reset")
		return
	}
	JSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.session.Readings())
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusCreated, s.session.Record())
}

func (s *Server) handleGetReading(w http.ResponseWriter, r *http.Request) {
	id, err := ledger.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	reading, ok := s.session.Reading(id)
	if !ok {
		Error(w, http.StatusNotFound, "reading not found")
		return
	}
	JSON(w, http.StatusOK, reading)
}

func (s *Server) handleDeleteReading(w http.ResponseWriter, r *http.Request) {
	id, err := ledger.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.session.Delete(id) {
		Error(w, http.StatusNotFound, "reading not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	id, err := ledger.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	reading, err := s.session.Calculate(id)
	var inv *ledger.InvalidInputError
	switch {
	case errors.As(err, &inv):
		JSON(w, http.StatusUnprocessableEntity, fieldError{Error: inv.Error(), Field: inv.Field, Value: inv.Value})
		return
	case errors.Is(err, ledger.ErrNotFound):
		Error(w, http.StatusNotFound, "reading not found")
		return
	case err != nil:
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSON(w, http.StatusOK, calculateResponse{Reading: reading, Deferred: reading.CalculatedR == nil})
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	fit, err := s.session.Fit()
	if errors.Is(err, analysis.ErrInsufficientData) {
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, fit)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	chat := s.session.Chat()
	JSON(w, http.StatusOK, chatHistoryResponse{Messages: chat.History(), Busy: chat.Busy()})
}

// handleAsk blocks until the assistant answers. A second question while one
// is in flight gets 409.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// the answer lands in the chat even if the client gives up waiting
	reply, err := s.session.Ask(context.WithoutCancel(r.Context()), req.Question)
	switch {
	case errors.Is(err, assistant.ErrEmptyQuestion):
		Error(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, assistant.ErrBusy):
		Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := report.WriteJSON(w, report.Build(s.session)); err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleReportPlot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := report.WritePNG(w, report.Build(s.session)); err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
	}
}
