package handler

import (
	"net/http"

	"github.com/segyhp/loan-reconciler/pkg/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every route and the shared middleware
func NewRouter(loans *LoanHandler, health *HealthHandler, logger *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.RequestIDMiddleware)
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware)

	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/loans", loans.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans", loans.ListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}", loans.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/summary", loans.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/schedule", loans.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/reconcile", loans.Reconcile).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/repayments", loans.ListRepayments).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/repayments", loans.RecordRepayment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/repayments/log", loans.RepaymentLog).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/repayments/{repaymentId}", loans.UpdateRepayment).Methods(http.MethodPut)
	api.HandleFunc("/loans/{loanId}/repayments/{repaymentId}", loans.DeleteRepayment).Methods(http.MethodDelete)

	return router
}
