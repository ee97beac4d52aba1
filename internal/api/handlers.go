package api

import (
	"fmt"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/importer"
	"github.com/gofiber/fiber/v2"
)

type handlers struct {
	store Catalog
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "request body is required")
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}

// found writes v, or a not-found error when v is nil.
func found[T any](c *fiber.Ctx, entity, id string, v *T, err error) error {
	if err != nil {
		return err
	}
	if v == nil {
		return domain.NotFoundError(entity, id)
	}
	return c.JSON(v)
}

func (h *handlers) listDepartments(c *fiber.Ctx) error {
	depts, err := h.store.Departments()
	if err != nil {
		return err
	}
	return c.JSON(depts)
}

func (h *handlers) createDepartment(c *fiber.Ctx) error {
	var in domain.DepartmentInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	d, err := h.store.AddDepartment(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

func (h *handlers) getDepartment(c *fiber.Ctx) error {
	id := c.Params("id")
	d, err := h.store.DepartmentByID(id)
	return found(c, "department", id, d, err)
}

func (h *handlers) updateDepartment(c *fiber.Ctx) error {
	var patch domain.DepartmentPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	d, err := h.store.UpdateDepartment(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *handlers) deleteDepartment(c *fiber.Ctx) error {
	res, err := h.store.DeleteDepartment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) listCategories(c *fiber.Ctx) error {
	id := c.Params("id")
	d, err := h.store.DepartmentByID(id)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.NotFoundError("department", id)
	}
	cats, err := h.store.CategoriesByDepartment(id)
	if err != nil {
		return err
	}
	return c.JSON(cats)
}

func (h *handlers) createCategory(c *fiber.Ctx) error {
	var in domain.CategoryInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	cat, err := h.store.AddCategory(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *handlers) getCategory(c *fiber.Ctx) error {
	id := c.Params("id")
	cat, err := h.store.CategoryByID(id)
	return found(c, "category", id, cat, err)
}

func (h *handlers) updateCategory(c *fiber.Ctx) error {
	var patch domain.CategoryPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	cat, err := h.store.UpdateCategory(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(cat)
}

func (h *handlers) deleteCategory(c *fiber.Ctx) error {
	res, err := h.store.DeleteCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) listProcesses(c *fiber.Ctx) error {
	id := c.Params("id")
	cat, err := h.store.CategoryByID(id)
	if err != nil {
		return err
	}
	if cat == nil {
		return domain.NotFoundError("category", id)
	}
	procs, err := h.store.ProcessesByCategory(id)
	if err != nil {
		return err
	}
	return c.JSON(procs)
}

func (h *handlers) createProcess(c *fiber.Ctx) error {
	var in domain.ProcessInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	p, err := h.store.AddProcess(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *handlers) getProcess(c *fiber.Ctx) error {
	id := c.Params("id")
	p, err := h.store.ProcessByID(id)
	return found(c, "process", id, p, err)
}

func (h *handlers) updateProcess(c *fiber.Ctx) error {
	var patch domain.ProcessPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	p, err := h.store.UpdateProcess(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *handlers) deleteProcess(c *fiber.Ctx) error {
	res, err := h.store.DeleteProcess(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) tree(c *fiber.Ctx) error {
	tree, err := h.store.Tree()
	if err != nil {
		return err
	}
	return c.JSON(tree)
}

func (h *handlers) stats(c *fiber.Ctx) error {
	st, err := h.store.Stats()
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (h *handlers) search(c *fiber.Ctx) error {
	results, err := h.store.Search(c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(results)
}

func (h *handlers) export(c *fiber.Ctx) error {
	exp, err := h.store.Export()
	if err != nil {
		return err
	}
	data, err := importer.Encode(exp)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="handbook-%s.json"`, exp.ExportedAt.Format("20060102-150405")))
	return c.Send(data)
}

func (h *handlers) importCatalog(c *fiber.Ctx) error {
	if err := h.store.ImportJSON(c.UserContext(), c.Body()); err != nil {
		return err
	}
	st, err := h.store.Stats()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"imported": st})
}

func (h *handlers) history(c *fiber.Ctx) error {
	revs, err := h.store.History(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(revs)
}
