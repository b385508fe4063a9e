package server

import (
	"log"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sgva-ao/sgva/internal/payroll"
	"github.com/sgva-ao/sgva/internal/store"
)

type Server struct {
	store  *store.Store
	calc   *payroll.Calculator
	router chi.Router
	addr   string
	quiet  bool
}

type Option func(*Server)

// WithoutRequestLog drops the per-request access log. The embedded server
// behind the TUI uses it so log lines do not land on the alt screen.
func WithoutRequestLog() Option {
	return func(s *Server) { s.quiet = true }
}

func New(st *store.Store, addr string, opts ...Option) *Server {
	r := chi.NewRouter()
	s := &Server{store: st, calc: payroll.NewCalculator(st, st, st, st), router: r, addr: addr}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	if !s.quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.health)

		// Staff
		r.Post("/categories", s.createCategory)
		r.Get("/categories", s.listCategories)
		r.Post("/employees", s.createEmployee)
		r.Get("/employees", s.listEmployees)
		r.Get("/employees/{id}", s.getEmployee)
		r.Patch("/employees/{id}", s.updateEmployee)
		r.Get("/employees/{id}/subsidies", s.listAssignments)
		r.Put("/employees/{id}/subsidies/{subsidyID}", s.upsertAssignment)
		r.Delete("/employees/{id}/subsidies/{subsidyID}", s.deleteAssignment)
		r.Put("/employees/{id}/absences/{year}/{month}", s.upsertAbsence)

		// Subsidy definitions
		r.Post("/subsidies", s.createSubsidy)
		r.Get("/subsidies", s.listSubsidies)
		r.Get("/subsidies/{id}", s.getSubsidy)
		r.Patch("/subsidies/{id}", s.updateSubsidy)
		r.Delete("/subsidies/{id}", s.deleteSubsidy)
		r.Post("/subsidies/{id}/assign-category", s.assignSubsidyToCategory)

		// IRT tables
		r.Get("/tax-brackets", s.getBrackets)
		r.Put("/tax-brackets/{year}", s.replaceBrackets)
		r.Get("/tax-brackets/snapshots", s.listBracketSnapshots)
		r.Post("/tax-brackets/snapshots/{id}/restore", s.restoreBracketSnapshot)

		// Payroll
		r.Post("/payroll/calculate", s.calculate)
		r.Post("/payroll/periods/{year}/{month}/calculate", s.calculatePeriod)
		r.Post("/payroll/periods/{year}/{month}/confirm", s.confirmPeriod)
		r.Get("/payroll/periods/{year}/{month}", s.getPeriod)
		r.Delete("/payroll/periods/{year}/{month}", s.deletePeriod)
		r.Get("/payroll/records/{id}", s.getRecord)
		r.Get("/payroll/periods/{year}/{month}/payments", s.listPayments)
		r.Put("/payroll/periods/{year}/{month}/payments/{employeeID}", s.setPayment)

		// Sales and expenses
		r.Post("/sales", s.createSale)
		r.Post("/expenses", s.createExpense)
		r.Get("/expenses", s.listExpenses)

		// Reports
		r.Get("/reports/income-statement", s.incomeStatement)

		// Settings
		r.Get("/settings/payroll", s.getPayrollSettings)
		r.Put("/settings/payroll", s.updatePayrollSettings)
		r.Get("/settings/finance", s.getFinanceSettings)
		r.Put("/settings/finance", s.updateFinanceSettings)
		r.Get("/settings/modules", s.getModuleSettings)
		r.Put("/settings/modules", s.updateModuleSettings)
	})

	return s
}

func (s *Server) ListenAndServe() error {
	log.Printf("sgva server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Serve(ln net.Listener) error {
	log.Printf("sgva server listening on %s", ln.Addr())
	return http.Serve(ln, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
