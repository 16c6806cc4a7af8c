// Package http exposes the session processor as a JSON API over fiber
package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"chesstral/internal/core"
	"chesstral/internal/processor"
	"chesstral/internal/service"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc   *processor.Processor
	svc    *service.Service
	logger *zap.Logger
}

// Config tunes the fiber application
type Config struct {
	DevMode    bool
	RateLimit  int // requests per second per client; 0 uses the default
	AccessLogs bool
	Logger     *zap.Logger
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{proc: proc, svc: svc, logger: logger.Named("http")}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, cfg Config) *fiber.App {
	h := NewHTTPHandler(proc, svc, cfg.Logger)

	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler(h.logger),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          35 * time.Second, // Long polls wait up to service.WaitTimeout
		IdleTimeout:           60 * time.Second,
		BodyLimit:             64 * 1024,
		DisableStartupMessage: true,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.AccessLogs {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	maxReq := cfg.RateLimit
	if maxReq <= 0 {
		maxReq = rateLimitRate
		if cfg.DevMode {
			maxReq = rateLimitRate * 2
		}
	}

	api := app.Group("/api/v1")
	api.Use(rateLimiter(maxReq))
	api.Use(contentTypeValidator)

	api.Get("/engines", h.ListEngines)
	api.Get("/sessions", h.ListSessions)
	api.Post("/sessions", bindBody[core.CreateSessionRequest](), h.CreateSession)

	sessions := api.Group("/sessions/:sessionId", sessionIDValidator)
	sessions.Get("", h.GetSession)
	sessions.Delete("", h.DeleteSession)
	sessions.Post("/start", h.simple(processor.NewStartCommand))
	sessions.Post("/moves", bindBody[core.MoveRequest](), h.MakeMove)
	sessions.Post("/ai", h.simple(processor.NewRequestAIMoveCommand))
	sessions.Post("/position", bindBody[core.LoadPositionRequest](), h.LoadPosition)
	sessions.Post("/navigate", bindBody[core.NavigateRequest](), h.Navigate)
	sessions.Post("/continue", h.simple(processor.NewContinueCommand))
	sessions.Post("/switch", h.simple(processor.NewSwitchSidesCommand))
	sessions.Put("/side", bindBody[core.SideRequest](), h.SetSide)
	sessions.Put("/engine", bindBody[core.EngineRequest](), h.SetEngine)
	sessions.Post("/resign", h.simple(processor.NewResignCommand))
	sessions.Post("/reset", h.simple(processor.NewResetCommand))
	sessions.Get("/evaluation", h.simple(processor.NewEvaluateCommand))
	sessions.Get("/commentary", h.simple(processor.NewGetCommentaryCommand))
	sessions.Post("/commentary/:index/review", h.MarkReviewed)
	sessions.Post("/commentary/:index/rating", bindBody[core.RateRequest](), h.Rate)
	sessions.Get("/analysis", h.simple(processor.NewAnalyzeCommand))
	sessions.Get("/board", h.GetBoard)
	sessions.Get("/opening", h.simple(processor.NewGetOpeningCommand))

	return app
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Unix(),
		"storage":  h.svc.GetStorageHealth(),
		"sessions": len(h.svc.ListSessions()),
	})
}

// respond writes a processor response using status on success
func (h *HTTPHandler) respond(c *fiber.Ctx, resp processor.ProcessorResponse, status int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(status).JSON(resp.Data)
}

func (h *HTTPHandler) bodyError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: err.Error(),
		Code:  core.ErrInternalError,
	})
}

// simple adapts a session command without a body
func (h *HTTPHandler) simple(build func(sessionID string) processor.Command) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp := h.proc.Execute(c.UserContext(), build(c.Params("sessionId")))
		return h.respond(c, resp, fiber.StatusOK)
	}
}

func (h *HTTPHandler) ListEngines(c *fiber.Ctx) error {
	return h.respond(c, h.proc.Execute(c.UserContext(), processor.NewListEnginesCommand()), fiber.StatusOK)
}

func (h *HTTPHandler) ListSessions(c *fiber.Ctx) error {
	return h.respond(c, h.proc.Execute(c.UserContext(), processor.NewListSessionsCommand()), fiber.StatusOK)
}

// CreateSession creates a new session, optionally loaded or started
func (h *HTTPHandler) CreateSession(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateSessionRequest](c)
	if err != nil {
		return h.bodyError(c, err)
	}
	resp := h.proc.Execute(c.UserContext(), processor.NewCreateSessionCommand(req))
	return h.respond(c, resp, fiber.StatusCreated)
}

// GetSession returns the session state. With wait=true it long-polls until
// the version differs from the version query parameter.
func (h *HTTPHandler) GetSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	if c.Query("wait", "false") != "true" {
		return h.respond(c, h.proc.Execute(c.UserContext(), processor.NewGetSessionCommand(sessionID)), fiber.StatusOK)
	}

	version, err := strconv.ParseUint(c.Query("version", "0"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid version",
			Code:    core.ErrInvalidRequest,
			Details: "version must be a non-negative integer",
		})
	}

	// The fasthttp context is cancelled on server shutdown
	snap, err := h.svc.WaitForChange(c.Context(), sessionID, version)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "session not found",
			Code:  core.ErrSessionNotFound,
		})
	}
	return c.JSON(processor.BuildSessionResponse(snap))
}

func (h *HTTPHandler) DeleteSession(c *fiber.Ctx) error {
	return h.respond(c, h.proc.Execute(c.UserContext(), processor.NewDeleteSessionCommand(c.Params("sessionId"))), fiber.StatusOK)
}

// MakeMove submits a human move
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return h.bodyError(c, err)
	}
	resp := h.proc.Execute(c.UserContext(), processor.NewMakeMoveCommand(c.Params("sessionId"), req))
	return h.respond(c, resp, fiber.StatusOK)
}

func (h *HTTPHandler) LoadPosition(c *fiber.Ctx) error {
	req, err := validatedBody[core.LoadPositionRequest](c)
	if err != nil {
		return h.bodyError(c, err)
	}
	resp := h.proc.Execute(c.UserContext(), processor.NewLoadPositionCommand(c.Params("sessionId"), req))
	return h.respond(c, resp, fiber.StatusOK)
}

func (h *HTTPHandler) Navigate(c *fiber.Ctx) error {
	req, err := validatedBody[core.NavigateRequest](c)
	if err != nil {
		return h.bodyError(c, err)
	}
	resp := h.proc.Execute(c.UserContext(), processor.NewNavigateCommand(c.Params("sessionId"), req))
	return h.respond(c, resp, fiber.StatusOK)
}

func (h *HTTPHandler) SetSide(c *fiber.Ctx) error {
	req, err := validatedBody[core.SideRequest](c)
	if err != nil {
		return h.bodyError(c, err)
	}
	resp := h.proc.Execute(c.UserContext(), processor.NewSetSideCommand(c.Params("sessionId"), req))
	return h.respond(c, resp, fiber.StatusOK)
}

func (h *HTTPHandler) SetEngine(c *fiber.Ctx) error {
	req, err := validatedBody[core.EngineRequest](c)
	if err != nil {
		return h.bodyError(c, err)
	}
	resp := h.proc.Execute(c.UserContext(), processor.NewSetEngineCommand(c.Params("sessionId"), req))
	return h.respond(c, resp, fiber.StatusOK)
}

// invalidIndex rejects a malformed :index path parameter
func invalidIndex(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   "invalid commentary index",
		Code:    core.ErrInvalidRequest,
		Details: "index must be a non-negative integer",
	})
}

func (h *HTTPHandler) MarkReviewed(c *fiber.Ctx) error {
	i, err := c.ParamsInt("index")
	if err != nil || i < 0 {
		return invalidIndex(c)
	}
	resp := h.proc.Execute(c.UserContext(), processor.NewMarkReviewedCommand(c.Params("sessionId"), i))
	return h.respond(c, resp, fiber.StatusOK)
}

// Rate scores one commentary entry
func (h *HTTPHandler) Rate(c *fiber.Ctx) error {
	i, err := c.ParamsInt("index")
	if err != nil || i < 0 {
		return invalidIndex(c)
	}
	req, err := validatedBody[core.RateRequest](c)
	if err != nil {
		return h.bodyError(c, err)
	}
	resp := h.proc.Execute(c.UserContext(), processor.NewRateCommand(c.Params("sessionId"), i, req))
	return h.respond(c, resp, fiber.StatusOK)
}

// GetBoard renders the displayed position as ASCII JSON or, with
// format=svg, as an SVG image
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	format := c.Query("format", processor.BoardASCII)
	if format != processor.BoardASCII && format != processor.BoardSVG {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid board format",
			Code:    core.ErrInvalidRequest,
			Details: "format must be one of [ascii svg]",
		})
	}

	resp := h.proc.Execute(c.UserContext(), processor.NewGetBoardCommand(c.Params("sessionId"), format))
	if resp.Success && format == processor.BoardSVG {
		body, _ := resp.Data.([]byte)
		c.Set(fiber.HeaderContentType, "image/svg+xml")
		return c.Send(body)
	}
	return h.respond(c, resp, fiber.StatusOK)
}
