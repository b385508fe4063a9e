package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

type calculateRequest struct {
	EmployeeID int64 `json:"employee_id"`
	Month      int   `json:"month"`
	Year       int   `json:"year"`
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, ok := checkPeriod(w, req.Month, req.Year)
	if !ok {
		return
	}
	cfg, err := s.store.PayrollConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	rec, err := s.calc.Calculate(r.Context(), cfg, req.EmployeeID, p)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// periodRequest optionally narrows a period run to some employees. An empty
// body means every active employee.
type periodRequest struct {
	EmployeeIDs []int64 `json:"employee_ids,omitempty"`
}

func decodePeriodRequest(w http.ResponseWriter, r *http.Request) (periodRequest, bool) {
	var req periodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return req, false
	}
	return req, true
}

func (s *Server) runPeriod(w http.ResponseWriter, r *http.Request) (*payroll.PeriodCalculation, bool) {
	p, ok := pathPeriod(w, r)
	if !ok {
		return nil, false
	}
	req, ok := decodePeriodRequest(w, r)
	if !ok {
		return nil, false
	}
	cfg, err := s.store.PayrollConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return nil, false
	}
	run, err := s.calc.CalculatePeriod(r.Context(), cfg, p, req.EmployeeIDs)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return nil, false
	}
	return run, true
}

func (s *Server) calculatePeriod(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runPeriod(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type confirmFailure struct {
	Error    string            `json:"error"`
	Failures []payroll.Failure `json:"failures"`
}

// confirmPeriod recomputes the period from stored data and writes it. The
// run must be clean: one failing employee blocks the whole confirmation.
func (s *Server) confirmPeriod(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runPeriod(w, r)
	if !ok {
		return
	}
	if len(run.Failures) > 0 {
		writeJSON(w, http.StatusBadRequest, confirmFailure{
			Error:    fmt.Sprintf("%d employees could not be calculated for %s", len(run.Failures), run.Period),
			Failures: run.Failures,
		})
		return
	}

	modules, err := s.store.ModuleConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	c, err := payroll.NewConfirmation(run.Period, run.Records, modules.SyncPayrollToSales())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	res, err := s.store.ConfirmPeriod(r.Context(), c)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) getPeriod(w http.ResponseWriter, r *http.Request) {
	p, ok := pathPeriod(w, r)
	if !ok {
		return
	}
	sum, err := s.store.GetPeriod(r.Context(), p)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) deletePeriod(w http.ResponseWriter, r *http.Request) {
	p, ok := pathPeriod(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePeriod(r.Context(), p); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := pathPeriod(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListPaymentStatuses(r.Context(), p)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type paymentRequest struct {
	Status     string          `json:"status"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
}

func (s *Server) setPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := pathPeriod(w, r)
	if !ok {
		return
	}
	employeeID, ok := pathID(w, r, "employeeID")
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st := &payroll.PaymentStatus{
		EmployeeID: employeeID,
		Month:      p.Month,
		Year:       p.Year,
		Status:     payroll.PaymentState(req.Status),
		AmountPaid: req.AmountPaid,
		PaidAt:     req.PaidAt,
	}
	if err := s.store.SetPaymentStatus(r.Context(), st); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
