package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sgva-ao/sgva/internal/payroll"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func mapError(err error) int {
	switch {
	case errors.Is(err, payroll.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, payroll.ErrDuplicatePeriod):
		return http.StatusConflict
	case errors.Is(err, payroll.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, payroll.ErrConfiguration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %s", name, raw))
		return 0, false
	}
	return id, true
}

// pathPeriod reads {year}/{month} from the route.
func pathPeriod(w http.ResponseWriter, r *http.Request) (payroll.Period, bool) {
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	month, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "invalid period: "+chi.URLParam(r, "year")+"/"+chi.URLParam(r, "month"))
		return payroll.Period{}, false
	}
	return checkPeriod(w, month, year)
}

// queryPeriod reads ?year=&month=.
func queryPeriod(w http.ResponseWriter, r *http.Request) (payroll.Period, bool) {
	q := r.URL.Query()
	year, err1 := strconv.Atoi(q.Get("year"))
	month, err2 := strconv.Atoi(q.Get("month"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "year and month query parameters are required")
		return payroll.Period{}, false
	}
	return checkPeriod(w, month, year)
}

func checkPeriod(w http.ResponseWriter, month, year int) (payroll.Period, bool) {
	p, err := payroll.NewPeriod(month, year)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return payroll.Period{}, false
	}
	return p, true
}
