package report

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return validationError(c, err.Error())
		}
		entries, err := svc.ListSessions(c.Context(), start, end)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"kind": "Internal", "message": err.Error()})
		}
		if entries == nil {
			entries = []Entry{}
		}
		return c.JSON(entries)
	})

	r.Get("/export", authMiddleware, func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return validationError(c, err.Error())
		}
		entries, err := svc.ListSessions(c.Context(), start, end)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"kind": "Internal", "message": err.Error()})
		}
		buf, err := BuildWorkbook(entries)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"kind": "Internal", "message": err.Error()})
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="attendance_report.xlsx"`)
		return c.Send(buf.Bytes())
	})
}

func parseDateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if raw := c.Query("startDate"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	return start, end, nil
}

func validationError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"kind": "ValidationError", "message": msg})
}
