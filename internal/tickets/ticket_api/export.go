package ticket_api

import (
	"fmt"
	"net/http"

	"cafe-pos/internal/models"
	"cafe-pos/internal/utils"

	"github.com/xuri/excelize/v2"
)

const (
	ticketsSheet       = "Tickets"
	linesSheet         = "Lines"
	defaultExportLimit = 10000
)

// ExportTickets serves the selected date range as an xlsx workbook. A range holding more
// than ExportLimit tickets is refused instead of being cut short.
func (h *Handler) ExportTickets(w http.ResponseWriter, r *http.Request) {
	from, to, err := utils.ParseDateRange(r, 30, h.today())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	list, err := h.TicketService.ListTickets(r.Context(), from, to, h.ExportLimit+1)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	if len(list) > h.ExportLimit {
		utils.WriteServiceError(w, models.NewValidationError("to", fmt.Sprintf("range holds more than %d tickets; export a shorter range", h.ExportLimit)))
		return
	}

	f, err := buildWorkbook(list)
	if err != nil {
		h.Logger.Error("TICKET", fmt.Sprintf("Failed to build export: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "failed to build export")
		return
	}
	defer f.Close()

	name := fmt.Sprintf("tickets_%s_%s.xlsx", from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := f.Write(w); err != nil {
		h.Logger.Error("TICKET", fmt.Sprintf("Failed to stream export: %v", err))
	}
}

func buildWorkbook(list []models.Ticket) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ticketsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(ticketsSheet, "A1", &[]interface{}{"Number", "Date", "Lines", "Total", "Cashier", "Tax ID"}); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(linesSheet, "A1", &[]interface{}{"Number", "Product", "Quantity", "Unit price", "Subtotal"}); err != nil {
		return nil, err
	}

	lineRow := 2
	for i, t := range list {
		total, _ := t.Total.Float64()
		taxID := ""
		if t.FiscalData != nil {
			taxID = t.FiscalData.TaxID
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{t.TicketNumber, t.Date, len(t.Items), total, t.UserName, taxID}
		if err := f.SetSheetRow(ticketsSheet, cell, &row); err != nil {
			return nil, err
		}

		for _, item := range t.Items {
			price, _ := item.Price.Float64()
			subtotal, _ := item.Subtotal().Float64()
			cell, _ := excelize.CoordinatesToCellName(1, lineRow)
			line := []interface{}{t.TicketNumber, item.ProductName, item.Quantity, price, subtotal}
			if err := f.SetSheetRow(linesSheet, cell, &line); err != nil {
				return nil, err
			}
			lineRow++
		}
	}
	return f, nil
}
