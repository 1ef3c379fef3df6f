package httpapi

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/tray-weather/internal/app"
	"github.com/i474232898/tray-weather/internal/mainloop"
	"github.com/i474232898/tray-weather/internal/store"
	"github.com/i474232898/tray-weather/internal/theme"
	"github.com/i474232898/tray-weather/internal/weather"
)

const serviceName = "tray-weather"

var validate = validator.New()

// NewServer returns a Fiber app with the control API registered.
func NewServer(a *app.App) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler,
	})

	// Global middleware
	server.Use(logger.New())
	server.Use(recover.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	RegisterRoutes(server, a)
	return server
}

// errorHandler renders every error as {"error": true, "message": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(server *fiber.App, a *app.App) {
	v1 := server.Group("/api/v1")

	v1.Get("/tabs", func(c *fiber.Ctx) error {
		views, err := a.Tabs()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(views)
	})

	v1.Get("/tabs/:city", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}
		view, err := a.Tab(city)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(view)
	})

	v1.Get("/tray", func(c *fiber.Ctx) error {
		tray, err := a.Tray()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(tray)
	})

	v1.Get("/jobs", func(c *fiber.Ctx) error {
		cities, err := a.InFlight()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"inFlight": cities})
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cfg, err := a.Config()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"cities": cfg.Cities})
	})

	v1.Post("/cities", func(c *fiber.Ctx) error {
		var req addCityRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.City = strings.TrimSpace(req.City)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := a.AddCity(req.City); err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"city": req.City})
	})

	v1.Delete("/cities/:city", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}
		if err := a.RemoveCity(city); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/cities/:city/position", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}
		var req moveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := a.MoveCity(city, *req.Index); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/cities/:city/refresh", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}
		if err := a.RefreshCity(city); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/cities/:city/history", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}
		req := historyQuery{Limit: c.QueryInt("limit", 0)}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		records, err := a.History(city, req.Limit)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"city":    city,
			"records": records,
		})
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		if err := a.Refresh(); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		cfg, err := a.Config()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(cfg)
	})

	v1.Put("/settings", func(c *fiber.Ctx) error {
		var req settingsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		cfg, err := a.UpdateSettings(req.toUpdate())
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(cfg)
	})

	v1.Get("/themes", func(c *fiber.Ctx) error {
		names, current, err := a.Themes()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"themes":  names,
			"current": current,
		})
	})
}

type addCityRequest struct {
	City string `json:"city" validate:"required,max=128"`
}

type moveRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type historyQuery struct {
	Limit int `validate:"min=0,max=1000"`
}

// settingsRequest is a partial update; omitted fields keep their value.
type settingsRequest struct {
	Units         *string `json:"units" validate:"omitempty,oneof=metric imperial"`
	Theme         *string `json:"theme" validate:"omitempty,min=1"`
	TimeFormat24h *bool   `json:"time_format_24h"`
	Debug         *bool   `json:"debug"`
}

func (r settingsRequest) toUpdate() app.SettingsUpdate {
	u := app.SettingsUpdate{
		Theme:         r.Theme,
		TimeFormat24h: r.TimeFormat24h,
		Debug:         r.Debug,
	}
	if r.Units != nil {
		units := weather.ParseUnits(*r.Units)
		u.Units = &units
	}
	return u
}

func cityParam(c *fiber.Ctx) (string, error) {
	city, err := url.PathUnescape(c.Params("city"))
	if err != nil || strings.TrimSpace(city) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid city")
	}
	return city, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, app.ErrUnknownCity), errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrDuplicateCity):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, app.ErrEmptyCity), errors.Is(err, theme.ErrNotFound), errors.Is(err, theme.ErrInvalidArchive):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, mainloop.ErrStopped):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
