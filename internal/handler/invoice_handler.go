package handler

import (
	"fmt"
	"net/http"
	"time"

	"facture/internal/service"
	"facture/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	pdfService     service.PDFService
	exportService  service.ExportService
}

func NewInvoiceHandler(invoiceService service.InvoiceService, pdfService service.PDFService, exportService service.ExportService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		pdfService:     pdfService,
		exportService:  exportService,
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/years", h.GetAvailableYears)
		invoices.GET("/export", h.ExportInvoices)
		invoices.POST("/totals", h.CalculateTotals)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.POST("/:id/pdf", h.GeneratePDF)
		invoices.GET("/:id/pdf", h.DownloadPDF)
	}
}

// CreateInvoice numbers and persists a new invoice, withdrawing stock for product lines
// @Summary      Create invoice
// @Description  Creates an invoice; totals, tax and amount in words are computed server-side
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.InvoiceRequest  true  "Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response "Insufficient stock"
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// UpdateInvoice replaces the content of an invoice, keeping its number
// @Summary      Update invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Invoice ID"
// @Param        payload  body      service.InvoiceRequest  true  "Invoice Payload"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response "Insufficient stock"
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var req service.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// GetInvoice returns one invoice with its lines
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ListInvoices returns the invoices of a year
// @Summary      List invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        year  query     int  false  "Year (default current year)"
// @Success      200   {object}  response.Response{data=[]service.InvoiceResponse}
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}

	invoices, err := h.invoiceService.ListInvoices(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoices))
}

// GetAvailableYears lists the years having invoices
// @Summary      Invoice years
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]int}
// @Router       /api/invoices/years [get]
func (h *InvoiceHandler) GetAvailableYears(c *gin.Context) {
	years, err := h.invoiceService.GetAvailableYears(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, years))
}

// CalculateTotals previews HT, TVA and the amount in words for a TTC total
// @Summary      Totals preview
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TotalsRequest  true  "Totals Payload"
// @Success      200      {object}  response.Response{data=service.TotalsResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/totals [post]
func (h *InvoiceHandler) CalculateTotals(c *gin.Context) {
	var req service.TotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	totals, err := h.invoiceService.CalculateTotals(c.Request.Context(), req.TotalTTC)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}

// GeneratePDF renders the invoice PDF on the server
// @Summary      Generate invoice PDF
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.PDFResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/pdf [post]
func (h *InvoiceHandler) GeneratePDF(c *gin.Context) {
	res, err := h.pdfService.GeneratePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// DownloadPDF renders the invoice PDF and streams it back
// @Summary      Download invoice PDF
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path  string  true  "Invoice ID"
// @Success      200  {file}  file
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	res, err := h.pdfService.GeneratePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.FileAttachment(res.Path, res.FileName)
}

// ExportInvoices returns the invoices of a year as an XLSX workbook
// @Summary      Export invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        year  query  int  false  "Year (default current year)"
// @Success      200   {file}  file
// @Router       /api/invoices/export [get]
func (h *InvoiceHandler) ExportInvoices(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	if year == 0 {
		year = time.Now().Year()
	}

	content, err := h.exportService.ExportYear(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="Factures_%d.xlsx"`, year))
	c.Data(http.StatusOK, xlsxContentType, content)
}
