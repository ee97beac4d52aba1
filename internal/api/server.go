// Package api serves the catalog over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/handbook/internal/catalog"
	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful shutdown once the serve context ends.
const ShutdownTimeout = 5 * time.Second

// Catalog is the store surface the API needs. *catalog.Store satisfies it.
type Catalog interface {
	Ready() <-chan struct{}
	Departments() ([]domain.Department, error)
	CategoriesByDepartment(deptID string) ([]domain.Category, error)
	ProcessesByCategory(catID string) ([]domain.Process, error)
	DepartmentByID(id string) (*domain.Department, error)
	CategoryByID(id string) (*domain.Category, error)
	ProcessByID(id string) (*domain.Process, error)
	Tree() ([]domain.DepartmentNode, error)
	Stats() (domain.Stats, error)
	AddDepartment(ctx context.Context, in domain.DepartmentInput) (domain.Department, error)
	UpdateDepartment(ctx context.Context, id string, patch domain.DepartmentPatch) (domain.Department, error)
	DeleteDepartment(ctx context.Context, id string) (domain.DeleteResult, error)
	AddCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error)
	UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string) (domain.DeleteResult, error)
	AddProcess(ctx context.Context, in domain.ProcessInput) (domain.Process, error)
	UpdateProcess(ctx context.Context, id string, patch domain.ProcessPatch) (domain.Process, error)
	DeleteProcess(ctx context.Context, id string) (domain.DeleteResult, error)
	Search(query string) ([]domain.SearchResult, error)
	Export() (domain.Export, error)
	ImportJSON(ctx context.Context, data []byte) error
	History(ctx context.Context) ([]repository.RevisionInfo, error)
}

// Options configures NewApp.
type Options struct {
	Logger *zap.Logger

	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// BodyLimit caps request bodies, imports included.
	BodyLimit int
}

// NewApp creates a fiber app with every catalog route mounted.
func NewApp(store Catalog, opts Options) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 32 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:               "handbook API v1",
		BodyLimit:             opts.BodyLimit,
		ReadTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(fiberrecover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestLogger(logger))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		select {
		case <-store.Ready():
			return c.JSON(fiber.Map{"status": "ok"})
		default:
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "initializing"})
		}
	})
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handlers{store: store}
	v1 := app.Group("/api/v1")

	v1.Get("/departments", h.listDepartments)
	v1.Post("/departments", h.createDepartment)
	v1.Get("/departments/:id", h.getDepartment)
	v1.Patch("/departments/:id", h.updateDepartment)
	v1.Delete("/departments/:id", h.deleteDepartment)
	v1.Get("/departments/:id/categories", h.listCategories)

	v1.Post("/categories", h.createCategory)
	v1.Get("/categories/:id", h.getCategory)
	v1.Patch("/categories/:id", h.updateCategory)
	v1.Delete("/categories/:id", h.deleteCategory)
	v1.Get("/categories/:id/processes", h.listProcesses)

	v1.Post("/processes", h.createProcess)
	v1.Get("/processes/:id", h.getProcess)
	v1.Patch("/processes/:id", h.updateProcess)
	v1.Delete("/processes/:id", h.deleteProcess)

	v1.Get("/tree", h.tree)
	v1.Get("/stats", h.stats)
	v1.Get("/search", h.search)
	v1.Get("/export", h.export)
	v1.Post("/import", h.importCatalog)
	v1.Get("/history", h.history)

	return app
}

// Serve runs app on addr until ctx ends, then shuts it down gracefully.
func Serve(ctx context.Context, app *fiber.App, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("api shutting down")
		if err := app.ShutdownWithTimeout(ShutdownTimeout); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// statusFor maps an error kind to an HTTP status code.
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch domain.Kind(err) {
	case "validation":
		return fiber.StatusBadRequest
	case "not_found":
		return fiber.StatusNotFound
	case "reference":
		return fiber.StatusUnprocessableEntity
	case "not_initialized":
		return fiber.StatusServiceUnavailable
	}
	if errors.Is(err, catalog.ErrHistoryUnsupported) {
		return fiber.StatusNotImplemented
	}
	return fiber.StatusInternalServerError
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := statusFor(err)
		body := fiber.Map{"error": err.Error()}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			body["problems"] = verr.Problems
		}
		if kind := domain.Kind(err); kind != "" && kind != "internal" {
			body["kind"] = kind
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(body)
	}
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = statusFor(err)
		}
		logger.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}
