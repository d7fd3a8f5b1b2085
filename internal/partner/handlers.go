package partner

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req struct {
			Partner
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" || req.LoginID == "" || req.Email == "" || req.Phone == "" || req.Password == "" || req.LocationID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, login_id, email, phone, password and location_id required")
		}
		created, err := svc.Create(c.Context(), req.Partner, req.Password)
		if err != nil {
			if errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrInvalidLocation) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/all/active", authMiddleware, func(c *fiber.Ctx) error {
		partners, err := svc.Active(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(partners)
	})

	r.Get("/all/applicants", authMiddleware, func(c *fiber.Ctx) error {
		partners, err := svc.Applicants(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(partners)
	})

	r.Get("/location/:id", authMiddleware, func(c *fiber.Ctx) error {
		partners, err := svc.ByLocation(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(partners)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "partner not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Patch
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "partner not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(updated)
	})
}
