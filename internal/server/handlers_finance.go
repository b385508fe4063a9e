package server

import (
	"net/http"
	"strconv"

	"github.com/sgva-ao/sgva/internal/finance"
	"github.com/sgva-ao/sgva/internal/payroll"
	"github.com/sgva-ao/sgva/internal/store"
)

func (s *Server) createSale(w http.ResponseWriter, r *http.Request) {
	var sale finance.Sale
	if !decodeJSON(w, r, &sale) {
		return
	}
	if err := s.store.CreateSale(r.Context(), &sale); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	e := finance.Expense{Paid: true}
	if !decodeJSON(w, r, &e) {
		return
	}
	if err := s.store.CreateExpense(r.Context(), &e); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ExpenseFilter{Category: q.Get("category")}
	for name, dst := range map[string]*int{
		"year": &filter.Year, "month": &filter.Month, "limit": &filter.Limit, "offset": &filter.Offset,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+name+": "+v)
			return
		}
		*dst = n
	}

	expenses, err := s.store.ListExpenses(r.Context(), filter)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	p, ok := queryPeriod(w, r)
	if !ok {
		return
	}
	st, err := s.store.IncomeStatement(r.Context(), p)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getPayrollSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.PayrollConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) updatePayrollSettings(w http.ResponseWriter, r *http.Request) {
	var u payroll.ConfigUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	cur, err := s.store.PayrollConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	next, err := u.Apply(cur)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SavePayrollConfig(r.Context(), next); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) getFinanceSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.FinanceConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) updateFinanceSettings(w http.ResponseWriter, r *http.Request) {
	var u finance.ConfigUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	cur, err := s.store.FinanceConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	next, err := u.Apply(cur)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveFinanceConfig(r.Context(), next); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) getModuleSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.ModuleConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, moduleSettingsResponse{cfg, cfg.SyncPayrollToSales()})
}

type moduleSettingsResponse struct {
	payroll.ModuleConfig
	SyncPayrollToSales bool `json:"sync_payroll_to_sales"`
}

func (s *Server) updateModuleSettings(w http.ResponseWriter, r *http.Request) {
	var u payroll.ModuleConfigUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	cur, err := s.store.ModuleConfig(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	next, err := u.Apply(cur)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	if err := s.store.SaveModuleConfig(r.Context(), next); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, moduleSettingsResponse{next, next.SyncPayrollToSales()})
}
