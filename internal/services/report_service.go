package services

import (
	"context"
	"time"

	"easybuy/internal/domain"
	"easybuy/internal/export"
)

type ReportService struct {
	Payments PaymentStore
}

func NewReportService(payments PaymentStore) *ReportService { return &ReportService{Payments: payments} }

// ExportLedger renders every recorded payment as an xlsx workbook.
func (s *ReportService) ExportLedger(ctx context.Context, caller domain.Caller) ([]byte, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	payments, err := s.Payments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return export.Ledger(payments, time.Now())
}
