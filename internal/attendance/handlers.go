package attendance

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type checkInRequest struct {
	PartnerID  string `json:"partner_id"`
	LocationID string `json:"location_id"`
}

type samplePayload struct {
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	IsMock         bool     `json:"is_mock"`
	IsBaseLocation bool     `json:"is_base_location"`
}

type trackRequest struct {
	AttendanceID string         `json:"attendance_id"`
	Location     *samplePayload `json:"location"`
}

type checkOutRequest struct {
	AttendanceID string `json:"attendance_id"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/checkin", authMiddleware, func(c *fiber.Ctx) error {
		var req checkInRequest
		if err := c.BodyParser(&req); err != nil {
			return validationError(c, "invalid payload")
		}
		if req.PartnerID == "" || req.LocationID == "" {
			return validationError(c, "partner_id and location_id required")
		}
		session, err := svc.CheckIn(c.Context(), req.PartnerID, req.LocationID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/track", authMiddleware, func(c *fiber.Ctx) error {
		var req trackRequest
		if err := c.BodyParser(&req); err != nil {
			return validationError(c, "invalid payload")
		}
		if req.AttendanceID == "" || req.Location == nil ||
			req.Location.Latitude == nil || req.Location.Longitude == nil {
			return validationError(c, "attendance_id and location latitude/longitude required")
		}
		total, err := svc.Track(c.Context(), req.AttendanceID, RoutePoint{
			Latitude:       *req.Location.Latitude,
			Longitude:      *req.Location.Longitude,
			IsMock:         req.Location.IsMock,
			IsBaseLocation: req.Location.IsBaseLocation,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"distance_covered_m": total})
	})

	r.Post("/checkout", authMiddleware, func(c *fiber.Ctx) error {
		var req checkOutRequest
		if err := c.BodyParser(&req); err != nil || req.AttendanceID == "" {
			return validationError(c, "attendance_id required")
		}
		total, err := svc.CheckOut(c.Context(), req.AttendanceID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"distance_covered_m": total})
	})

	r.Get("/:id/route", authMiddleware, func(c *fiber.Ctx) error {
		points, err := svc.Route(c.Context(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(points)
	})
}

func validationError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"kind": "ValidationError", "message": msg})
}

func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidReference):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"kind": "InvalidReference", "message": err.Error()})
	case errors.Is(err, ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"kind": "SessionNotFound", "message": err.Error()})
	case errors.Is(err, ErrUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"kind": "Unavailable", "message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"kind": "Internal", "message": err.Error()})
	}
}
