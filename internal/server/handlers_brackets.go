package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sgva-ao/sgva/internal/payroll"
)

const yamlContentType = "application/yaml"

type bracketTableResponse struct {
	EffectiveYear int                  `json:"effective_year"`
	Brackets      []payroll.TaxBracket `json:"brackets"`
}

func tableResponse(t *payroll.BracketTable) bracketTableResponse {
	return bracketTableResponse{EffectiveYear: t.EffectiveYear, Brackets: t.Brackets()}
}

// getBrackets returns the table in force for ?year= (default: this year).
// ?format=yaml returns it as a bracket file.
func (s *Server) getBrackets(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year: "+v)
			return
		}
		year = y
	}

	table, err := s.store.BracketTable(r.Context(), year)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	if r.URL.Query().Get("format") == "yaml" {
		b, err := payroll.MarshalBracketFile(table, fmt.Sprintf("IRT %d", table.EffectiveYear))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", yamlContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}
	writeJSON(w, http.StatusOK, tableResponse(table))
}

type replaceBracketsRequest struct {
	Label    string               `json:"label,omitempty"`
	Brackets []payroll.TaxBracket `json:"brackets"`
}

type replaceBracketsResponse struct {
	bracketTableResponse
	SnapshotID int64 `json:"snapshot_id,omitempty"`
}

// replaceBrackets installs a table for {year}. The body is either JSON or,
// with a YAML content type, a bracket file whose effective year must match.
func (s *Server) replaceBrackets(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year: "+chi.URLParam(r, "year"))
		return
	}

	var (
		table *payroll.BracketTable
		label string
	)
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		table, label, err = payroll.ParseBracketFile(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if table.EffectiveYear != year {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("file is for %d, not %d", table.EffectiveYear, year))
			return
		}
	} else {
		var req replaceBracketsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		table, err = payroll.NewBracketTable(year, req.Brackets)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		label = req.Label
	}

	snapID, err := s.store.ReplaceBracketTable(r.Context(), table, label)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, replaceBracketsResponse{bracketTableResponse: tableResponse(table), SnapshotID: snapID})
}

func (s *Server) listBracketSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.ListBracketSnapshots(r.Context())
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) restoreBracketSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	table, err := s.store.RestoreBracketSnapshot(r.Context(), id)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tableResponse(table))
}
