package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"facture/internal/metrics"
	"facture/internal/model"
	"facture/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceRenderer turns a loaded invoice into PDF bytes.
type InvoiceRenderer interface {
	Render(inv *model.Invoice) ([]byte, error)
}

type PDFResponse struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
}

type PDFService interface {
	GeneratePDF(ctx context.Context, id string) (PDFResponse, error)
}

type pdfService struct {
	invoiceRepo repository.InvoiceRepository
	renderer    InvoiceRenderer
	outputDir   string
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func NewPDFService(invoiceRepo repository.InvoiceRepository, renderer InvoiceRenderer, outputDir string, m *metrics.Metrics, log *zap.Logger) PDFService {
	return &pdfService{
		invoiceRepo: invoiceRepo,
		renderer:    renderer,
		outputDir:   outputDir,
		metrics:     m,
		log:         log,
	}
}

// PDFFileName is the file name an invoice PDF is saved under.
func PDFFileName(inv *model.Invoice) string {
	return fmt.Sprintf("Facture_%04d_%d.pdf", inv.SequenceNumber, inv.Year)
}

// GeneratePDF renders the invoice and writes it to the output directory,
// replacing any previous rendition.
func (s *pdfService) GeneratePDF(ctx context.Context, id string) (res PDFResponse, err error) {
	defer func() { s.metrics.PDFRendered(err) }()

	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return PDFResponse{}, invalidf("invalid invoice id")
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return PDFResponse{}, lookupErr("invoice", err)
	}

	content, err := s.renderer.Render(invoice)
	if err != nil {
		return PDFResponse{}, err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return PDFResponse{}, fmt.Errorf("failed to create pdf directory: %w", err)
	}
	name := PDFFileName(invoice)
	path, err := filepath.Abs(filepath.Join(s.outputDir, name))
	if err != nil {
		return PDFResponse{}, fmt.Errorf("failed to resolve pdf path: %w", err)
	}

	// write then rename so readers never see a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return PDFResponse{}, fmt.Errorf("failed to save PDF: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return PDFResponse{}, fmt.Errorf("failed to save PDF: %w", err)
	}

	s.log.Info("invoice pdf generated", zap.String("invoice_id", id), zap.String("path", path))
	return PDFResponse{Path: path, FileName: name}, nil
}
