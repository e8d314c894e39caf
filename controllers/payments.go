package controllers

import (
	"fmt"
	"strconv"
	"time"

	"tutortrack/database"
	"tutortrack/middleware"
	"tutortrack/models"
	"tutortrack/services"
	"tutortrack/services/websocket"
	"tutortrack/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type PaymentController struct {
	Hub *websocket.Hub
}

// monthYearFromQuery reads month/year query params, defaulting to the current
// calendar month.
func monthYearFromQuery(c *fiber.Ctx) (int, int, error) {
	now := time.Now()
	month, err := strconv.Atoi(c.Query("month", strconv.Itoa(int(now.Month()))))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Invalid month, expected 1-12")
	}
	year, err := strconv.Atoi(c.Query("year", strconv.Itoa(now.Year())))
	if err != nil || year < 2000 || year > 2200 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Invalid year")
	}
	return month, year, nil
}

func loadGroupLedger(groupPin string, month, year int) ([]models.MonthlyPayment, error) {
	var ledger []models.MonthlyPayment
	err := database.DB.Where("group_pin = ? AND month = ? AND year = ?", groupPin, month, year).Find(&ledger).Error
	return ledger, err
}

// GetPaymentSummary aggregates payment state for the whole group for one
// month.
func (pc *PaymentController) GetPaymentSummary(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	month, year, err := monthYearFromQuery(c)
	if err != nil {
		return err
	}

	var students []models.Student
	if err := database.DB.Where("group_pin = ?", group.Pin).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}
	services.NormalizeStudents(students)

	ledger, err := loadGroupLedger(group.Pin, month, year)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payment ledger",
		})
	}

	summary := services.PaymentSummary(students, ledger, month, year)

	return c.JSON(fiber.Map{
		"month":   month,
		"year":    year,
		"summary": summary,
	})
}

// GetPaymentStatuses returns only the per-student statuses for one month.
func (pc *PaymentController) GetPaymentStatuses(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	month, year, err := monthYearFromQuery(c)
	if err != nil {
		return err
	}

	var students []models.Student
	if err := database.DB.Where("group_pin = ?", group.Pin).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}
	services.NormalizeStudents(students)

	ledger, err := loadGroupLedger(group.Pin, month, year)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payment ledger",
		})
	}

	statuses := make([]services.PaymentStatus, 0, len(students))
	for _, student := range students {
		statuses = append(statuses, services.CalculateStudentPaymentStatus(student, ledger, month, year))
	}

	return c.JSON(fiber.Map{
		"month":    month,
		"year":     year,
		"statuses": statuses,
	})
}

// MarkPaid marks a monthly student as paid for a month, creating the ledger
// entry when it does not exist yet.
func (pc *PaymentController) MarkPaid(c *fiber.Ctx) error {
	return pc.setPaid(c, true)
}

// MarkUnpaid reverts a monthly payment.
func (pc *PaymentController) MarkUnpaid(c *fiber.Ctx) error {
	return pc.setPaid(c, false)
}

func (pc *PaymentController) setPaid(c *fiber.Ctx, paid bool) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	student, err := findStudentInGroup(group, c.Params("id"))
	if err != nil {
		return err
	}

	var req struct {
		Month         int    `json:"month"`
		Year          int    `json:"year"`
		PaymentMethod string `json:"payment_method"`
		Notes         string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Month < 1 || req.Month > 12 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid month, expected 1-12",
		})
	}
	if req.Year == 0 {
		req.Year = time.Now().Year()
	}
	if req.PaymentMethod != "" && !utils.IsValidPaymentMethod(req.PaymentMethod) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment method. Must be: cash, bank_transfer, credit_card or other",
		})
	}

	docID := models.MonthlyPaymentDocID(group.Pin, student.ID, req.Month, req.Year)
	amount := services.CalculatePaymentAmount(*student)

	var entry models.MonthlyPayment
	err = database.DB.Where("doc_id = ?", docID).First(&entry).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch payment record",
			})
		}
		entry = models.MonthlyPayment{
			DocID:     docID,
			GroupPin:  group.Pin,
			StudentID: student.ID,
			Month:     req.Month,
			Year:      req.Year,
		}
	}

	entry.IsPaid = paid
	entry.MonthlyFee = amount.CalculatedAmount
	if paid {
		now := time.Now()
		entry.PaymentDate = &now
		if req.PaymentMethod != "" {
			entry.PaymentMethod = req.PaymentMethod
		}
	} else {
		entry.PaymentDate = nil
		entry.PaymentMethod = ""
	}
	if req.Notes != "" {
		entry.Notes = req.Notes
	}

	if err := database.DB.Save(&entry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save payment record",
		})
	}

	action := "MARK_PAID"
	if !paid {
		action = "MARK_UNPAID"
	}
	middleware.LogActivity(c, group.Pin, action, "payments", entry.ID, entry)
	pc.Hub.BroadcastToGroup(group.Pin, websocket.EventPaymentUpdated, entry)

	return c.JSON(fiber.Map{
		"message": "Payment updated successfully",
		"payment": entry,
	})
}

// UpdatePaymentDetails edits method and notes on an existing ledger entry
// without touching the paid flag.
func (pc *PaymentController) UpdatePaymentDetails(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	paymentID, err := strconv.ParseUint(c.Params("paymentId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment ID",
		})
	}

	var entry models.MonthlyPayment
	if err := database.DB.First(&entry, uint(paymentID)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Payment record not found",
		})
	}
	if entry.GroupPin != group.Pin {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Payment record not found",
		})
	}

	var req struct {
		PaymentMethod *string `json:"payment_method"`
		Notes         *string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.PaymentMethod != nil {
		if *req.PaymentMethod != "" && !utils.IsValidPaymentMethod(*req.PaymentMethod) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid payment method. Must be: cash, bank_transfer, credit_card or other",
			})
		}
		entry.PaymentMethod = *req.PaymentMethod
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}

	if err := database.DB.Save(&entry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update payment record",
		})
	}

	middleware.LogActivity(c, group.Pin, "UPDATE", "payments", entry.ID, req)
	pc.Hub.BroadcastToGroup(group.Pin, websocket.EventPaymentUpdated, entry)

	return c.JSON(fiber.Map{
		"message": "Payment updated successfully",
		"payment": entry,
	})
}

// GetPaymentHistory returns the group's ledger grouped by month, newest
// first.
func (pc *PaymentController) GetPaymentHistory(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	var ledger []models.MonthlyPayment
	if err := database.DB.Where("group_pin = ?", group.Pin).Find(&ledger).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payment history",
		})
	}

	history := services.PaymentHistory(ledger)

	return c.JSON(fiber.Map{
		"history": history,
		"total":   len(history),
	})
}

// ExportPaymentSummary writes the month's payment summary as an xlsx
// download.
func (pc *PaymentController) ExportPaymentSummary(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	month, year, err := monthYearFromQuery(c)
	if err != nil {
		return err
	}

	var students []models.Student
	if err := database.DB.Where("group_pin = ?", group.Pin).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}
	services.NormalizeStudents(students)

	ledger, err := loadGroupLedger(group.Pin, month, year)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payment ledger",
		})
	}

	summary := services.PaymentSummary(students, ledger, month, year)

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Student", "Payment Type", "Amount", "Currency", "Expected", "Paid", "Paid Lessons", "Total Lessons", "Payment Date", "Method", "Notes"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, status := range summary.Statuses {
		values := []interface{}{
			status.StudentName,
			status.PaymentType,
			status.Amount,
			status.Currency,
			status.CalculatedAmount,
			status.IsPaid,
			status.PaidLessons,
			status.TotalLessons,
			"",
			status.PaymentMethod,
			status.Notes,
		}
		if status.PaymentDate != nil {
			values[8] = status.PaymentDate.Format("2006-01-02")
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	totalsRow := len(summary.Statuses) + 3
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow), "Totals")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsRow), fmt.Sprintf("%d/%d students paid", summary.PaidStudents, summary.TotalStudents))
	f.SetCellValue(sheet, fmt.Sprintf("C%d", totalsRow), summary.TotalPaidRevenue)
	f.SetCellValue(sheet, fmt.Sprintf("D%d", totalsRow), summary.TotalExpectedRevenue)
	f.SetCellValue(sheet, fmt.Sprintf("E%d", totalsRow), fmt.Sprintf("%d%%", summary.PaymentRate))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build export",
		})
	}

	filename := fmt.Sprintf("payments_%s_%04d_%02d.xlsx", group.Pin, year, month)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}
