package server

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
	"github.com/sgva-ao/sgva/internal/store"
)

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var c payroll.Category
	if !decodeJSON(w, r, &c) {
		return
	}
	if err := s.store.CreateCategory(r.Context(), &c); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

type createEmployeeRequest struct {
	Name          string           `json:"name"`
	CategoryID    *int64           `json:"category_id,omitempty"`
	BaseSalary    decimal.Decimal  `json:"base_salary"`
	ManualSubsidy *decimal.Decimal `json:"manual_subsidy,omitempty"`
	Active        *bool            `json:"active,omitempty"`
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	emp := &payroll.Employee{
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		BaseSalary:    req.BaseSalary,
		ManualSubsidy: req.ManualSubsidy,
		Active:        req.Active == nil || *req.Active,
	}
	if err := s.store.CreateEmployee(r.Context(), emp); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	filter := store.EmployeeFilter{}
	q := r.URL.Query()
	if v := q.Get("active"); v == "true" || v == "1" {
		filter.ActiveOnly = true
	}
	if v := q.Get("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category: "+v)
			return
		}
		filter.CategoryID = &id
	}

	employees, err := s.store.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (s *Server) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	emp, err := s.store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (s *Server) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var u payroll.EmployeeUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	emp, err := s.store.UpdateEmployee(r.Context(), id, u)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.store.GetEmployee(r.Context(), id); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	links, err := s.store.ListAssignments(r.Context(), id)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, links)
}

type assignmentRequest struct {
	OverrideValue *decimal.Decimal `json:"override_value,omitempty"`
	Active        *bool            `json:"active,omitempty"`
}

func (s *Server) upsertAssignment(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subsidyID, ok := pathID(w, r, "subsidyID")
	if !ok {
		return
	}
	var req assignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a := payroll.Assignment{
		EmployeeID:    employeeID,
		SubsidyID:     subsidyID,
		OverrideValue: req.OverrideValue,
		Active:        req.Active == nil || *req.Active,
	}
	if err := s.store.UpsertAssignment(r.Context(), a); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subsidyID, ok := pathID(w, r, "subsidyID")
	if !ok {
		return
	}
	if err := s.store.DeleteAssignment(r.Context(), employeeID, subsidyID); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) upsertAbsence(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, ok := pathPeriod(w, r)
	if !ok {
		return
	}
	var a payroll.Absence
	if !decodeJSON(w, r, &a) {
		return
	}
	a.EmployeeID, a.Month, a.Year = employeeID, p.Month, p.Year
	if a.Kind == "" {
		a.Kind = payroll.AbsenceUnjustified
	}
	if err := s.store.UpsertAbsence(r.Context(), &a); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) createSubsidy(w http.ResponseWriter, r *http.Request) {
	sub := payroll.Subsidy{
		Active:                     true,
		CountsTowardSocialSecurity: true,
		CountsTowardIncomeTax:      true,
	}
	if !decodeJSON(w, r, &sub) {
		return
	}
	if err := s.store.CreateSubsidy(r.Context(), &sub); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) listSubsidies(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	subs, err := s.store.ListSubsidies(r.Context(), activeOnly)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) getSubsidy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sub, err := s.store.GetSubsidy(r.Context(), id)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) updateSubsidy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var u payroll.SubsidyUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	sub, err := s.store.UpdateSubsidy(r.Context(), id, u)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) deleteSubsidy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteSubsidy(r.Context(), id); err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignCategoryRequest struct {
	CategoryID    int64            `json:"category_id"`
	OverrideValue *decimal.Decimal `json:"override_value,omitempty"`
}

func (s *Server) assignSubsidyToCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req assignCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := s.store.AssignToCategory(r.Context(), id, req.CategoryID, req.OverrideValue)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subsidy_id":  id,
		"category_id": req.CategoryID,
		"assigned":    n,
	})
}
