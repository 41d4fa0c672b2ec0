package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vsinha/stockcast/pkg/application/services/dashboard"
	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/services"
	csvloader "github.com/vsinha/stockcast/pkg/infrastructure/repositories/csv"
)

// Handler serves the session routes
type Handler struct {
	registry *dashboard.Registry
	loader   *csvloader.Loader
	logger   *log.Logger
}

// badRequest marks client input errors
type badRequest struct {
	err error
}

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

// RunSummary is the response to a sales upload
type RunSummary struct {
	RunID           string             `json:"run_id"`
	Horizon         int                `json:"horizon"`
	Rows            int                `json:"rows"`
	Items           int                `json:"items"`
	ForecastedItems int                `json:"forecasted_items"`
	Skipped         []entities.Skip    `json:"skipped"`
	Dropped         services.DropStats `json:"dropped"`
	DurationMS      int64              `json:"duration_ms"`
}

type selectionRequest struct {
	ItemCode string `json:"item_code"`
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var (
		schemaErr *entities.SchemaError
		reqErr    *badRequest
		fiberErr  *fiber.Error
	)
	switch {
	case errors.As(err, &schemaErr):
		status = fiber.StatusUnprocessableEntity
	case errors.As(err, &reqErr):
		status = fiber.StatusBadRequest
	case errors.Is(err, dashboard.ErrSessionNotFound),
		errors.Is(err, dashboard.ErrSessionClosed),
		errors.Is(err, dashboard.ErrUnknownItem):
		status = fiber.StatusNotFound
	case errors.Is(err, dashboard.ErrNoSales):
		status = fiber.StatusConflict
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
	}

	return c.Status(status).JSON(fiber.Map{"success": false, "message": err.Error()})
}

func (h *Handler) session(c *fiber.Ctx) (*dashboard.Session, error) {
	return h.registry.Get(c.Params("id"))
}

// csvBody returns the uploaded CSV from the "file" multipart field or the raw body
func csvBody(c *fiber.Ctx) (io.Reader, error) {
	contentType := string(c.Request().Header.ContentType())
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		body := c.Body()
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, &badRequest{errors.New("empty request body")}
		}
		return bytes.NewReader(body), nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, &badRequest{fmt.Errorf("multipart field \"file\": %w", err)}
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, fiber.Map{"sessions": h.registry.Len()})
}

// HandleCreateSession starts a new dashboard session
func (h *Handler) HandleCreateSession(c *fiber.Ctx) error {
	session := h.registry.Create()
	return ok(c, fiber.StatusCreated, fiber.Map{"id": session.ID()})
}

// HandleDeleteSession ends a session
func (h *Handler) HandleDeleteSession(c *fiber.Ctx) error {
	if err := h.registry.Delete(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleUploadStock replaces the session inventory
func (h *Handler) HandleUploadStock(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	body, err := csvBody(c)
	if err != nil {
		return err
	}
	rows, err := h.loader.LoadInventory(body)
	if err != nil {
		var schemaErr *entities.SchemaError
		if errors.As(err, &schemaErr) {
			return err
		}
		return &badRequest{err}
	}

	if err := session.UploadStock(rows); err != nil {
		return &badRequest{err}
	}
	return ok(c, fiber.StatusOK, fiber.Map{"rows": len(rows)})
}

// HandleUploadSales replaces the session sales and recomputes the forecast
func (h *Handler) HandleUploadSales(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	body, err := csvBody(c)
	if err != nil {
		return err
	}
	table, err := h.loader.LoadSalesTable(body)
	if err != nil {
		return &badRequest{err}
	}

	result, err := session.UploadSales(c.UserContext(), table)
	if err != nil {
		return err
	}

	h.logger.Printf("[INFO] session %s: run %s produced %d rows", session.ID(), result.RunID, len(result.Rows))
	return ok(c, fiber.StatusOK, RunSummary{
		RunID:           result.RunID,
		Horizon:         result.Horizon,
		Rows:            len(result.Rows),
		Items:           result.Stats.Items,
		ForecastedItems: result.Stats.ForecastedItems,
		Skipped:         result.Skipped,
		Dropped:         result.Stats.Dropped,
		DurationMS:      result.Duration.Milliseconds(),
	})
}

// HandleGetInventory returns the inventory joined with forecast summaries
func (h *Handler) HandleGetInventory(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	view, err := session.InventoryView()
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, view)
}

// HandleGetSelection returns the selected stock row
func (h *Handler) HandleGetSelection(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	row, found, err := session.Selected()
	if err != nil {
		return err
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "no inventory uploaded")
	}
	return ok(c, fiber.StatusOK, row)
}

// HandleSetSelection changes the selected item
func (h *Handler) HandleSetSelection(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req selectionRequest
	if err := c.BodyParser(&req); err != nil {
		return &badRequest{fmt.Errorf("invalid request body: %w", err)}
	}
	if strings.TrimSpace(req.ItemCode) == "" {
		return &badRequest{errors.New("item_code is required")}
	}

	if err := session.Select(entities.ItemCode(req.ItemCode)); err != nil {
		return err
	}
	return h.HandleGetSelection(c)
}

// HandleGetSalesSeries returns the aggregated daily sales of one item
func (h *Handler) HandleGetSalesSeries(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	points, err := session.SalesSeries(entities.NormalizeItemCode(c.Params("code")))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, points)
}

// HandleGetForecast returns forecast rows, optionally filtered by ?item= and ?last=
func (h *Handler) HandleGetForecast(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	last := c.QueryInt("last", 0)
	if last < 0 {
		return &badRequest{fmt.Errorf("last must be non-negative, got %d", last)}
	}
	rows, err := session.Forecast(dashboard.ForecastFilter{
		ItemCode: entities.NormalizeItemCode(c.Query("item")),
		Last:     last,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, rows)
}

// HandleGetSkips returns items excluded from the latest run
func (h *Handler) HandleGetSkips(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	skips, err := session.Skips()
	if err != nil {
		return err
	}
	if skips == nil {
		skips = []entities.Skip{}
	}
	return ok(c, fiber.StatusOK, skips)
}
