package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-service/internal/ledger"
	"school-service/internal/model"
	"school-service/pkg/database"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// CreateFee bills a student. The fee's school is copied from the student,
// which has already been verified to be in the caller's scope; a fee can
// never point at a student in another school.
func CreateFee(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var req struct {
		StudentID   uint       `json:"student_id" validate:"required"`
		Title       string     `json:"title" validate:"required"`
		Term        string     `json:"term"`
		TotalAmount int64      `json:"total_amount" validate:"required,gt=0"`
		DueDate     *time.Time `json:"due_date"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var student model.Student
	if result := scope.Apply(database.GetDB()).First(&student, req.StudentID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	fee := model.Fee{
		StudentID:   student.ID,
		SchoolID:    student.SchoolID,
		SchoolName:  student.SchoolName,
		Title:       req.Title,
		Term:        req.Term,
		TotalAmount: req.TotalAmount,
		DueAmount:   req.TotalAmount,
		Status:      model.FeeStatusPending,
		DueDate:     req.DueDate,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&fee); result.Error != nil {
		log.Error("Failed to create fee", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create fee"})
	}

	prometheus.RecordResourceOperation("fee", "create")
	log.Info("Fee created",
		zap.Uint("fee_id", fee.ID),
		zap.Uint("student_id", fee.StudentID),
		zap.Int64("total_amount", fee.TotalAmount))
	return c.JSON(http.StatusCreated, fee)
}

// ListFees returns fees in the caller's school
func ListFees(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := familyNarrow(c, scope.Apply(database.GetDB().Model(&model.Fee{})), "student_id")
	if sid := c.QueryParam("student_id"); sid != "" {
		q = q.Where("student_id = ?", sid)
	}
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	q.Count(&total)

	var fees []model.Fee
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&fees); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list fees"})
	}
	return paginated(c, "fees", fees, page, limit, total)
}

// GetFee returns one fee, within the caller's scope. Family callers only
// see fees billed to their own students.
func GetFee(c echo.Context) error {
	scope := readScope(c)

	var fee model.Fee
	if result := familyNarrow(c, scope.Apply(database.GetDB()), "student_id").
		First(&fee, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "fee not found"})
	}
	return c.JSON(http.StatusOK, fee)
}

// RecordPayment appends a payment to a fee and returns the recomputed fee
func RecordPayment(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	feeID := uint(atoiDefault(c.Param("id"), 0))
	if feeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fee id"})
	}

	var req struct {
		Amount    int64      `json:"amount" validate:"required,gt=0"`
		Mode      string     `json:"mode"`
		Reference string     `json:"reference"`
		PaidAt    *time.Time `json:"paid_at"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := ledger.PaymentInput{
		Amount:    req.Amount,
		Mode:      req.Mode,
		Reference: req.Reference,
	}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	}

	defer prometheus.TrackDBOperation("transaction")(time.Now())
	fee, entry, err := ledger.RecordPayment(database.GetDB(), scope, feeID, in)
	switch {
	case errors.Is(err, ledger.ErrFeeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "fee not found"})
	case errors.Is(err, ledger.ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment amount must be positive"})
	case err != nil:
		log.Error("Failed to record payment", zap.Uint("fee_id", feeID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payment"})
	}

	prometheus.PaymentsRecordedCounter.Inc()
	prometheus.RecordResourceOperation("payment", "create")
	log.Info("Payment recorded",
		zap.Uint("fee_id", fee.ID),
		zap.Int64("amount", entry.Amount),
		zap.String("status", fee.Status))
	return c.JSON(http.StatusCreated, echo.Map{"fee": fee, "payment": entry})
}

// ListPayments returns a fee's payment history oldest first
func ListPayments(c echo.Context) error {
	scope := readScope(c)

	var fee model.Fee
	if result := familyNarrow(c, scope.Apply(database.GetDB()), "student_id").
		First(&fee, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "fee not found"})
	}

	var payments []model.PaymentHistory
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := database.GetDB().Where("fee_id = ?", fee.ID).Order("id asc").Find(&payments); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list payments"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fee": fee, "payments": payments})
}

// UploadReceipt attaches a receipt file to a payment. Files land on local
// disk under the configured upload dir, namespaced by school.
func UploadReceipt(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	paymentID := uint(atoiDefault(c.Param("paymentId"), 0))
	if paymentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}

	var payment model.PaymentHistory
	if result := scope.Apply(database.GetDB()).First(&payment, paymentID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
	}

	file, err := c.FormFile("receipt")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receipt file is required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unable to read receipt file"})
	}
	defer src.Close()

	dir := filepath.Join(uploadDir, payment.SchoolID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("Failed to create upload dir", zap.String("dir", dir), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store receipt"})
	}

	name := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(file.Filename))
	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		log.Error("Failed to create receipt file", zap.String("path", dstPath), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store receipt"})
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		log.Error("Failed to write receipt file", zap.String("path", dstPath), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store receipt"})
	}

	if err := database.GetDB().Model(&payment).Update("receipt_path", dstPath).Error; err != nil {
		log.Error("Failed to link receipt to payment", zap.Uint("payment_id", payment.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store receipt"})
	}

	log.Info("Receipt uploaded", zap.Uint("payment_id", payment.ID), zap.String("path", dstPath))
	return c.JSON(http.StatusOK, echo.Map{"payment_id": payment.ID, "receipt_path": dstPath})
}
