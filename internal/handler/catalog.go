package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/model"
	"github.com/iliyamo/planetarium-booking/internal/repository"
)

// CatalogHandler bundles dependencies for catalog endpoints: themes,
// astronomy shows and planetarium domes.  Reads are open to every
// authenticated user; writes are restricted to admins by middleware.
type CatalogHandler struct {
	Themes *repository.ThemeRepo
	Shows  *repository.ShowRepo
	Domes  *repository.DomeRepo
}

func NewCatalogHandler(t *repository.ThemeRepo, s *repository.ShowRepo, d *repository.DomeRepo) *CatalogHandler {
	return &CatalogHandler{Themes: t, Shows: s, Domes: d}
}

// ----- view shapes -----

type themeView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type showView struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Themes      []themeView `json:"themes"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type domeView struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Rows       uint32    `json:"rows"`
	SeatsInRow uint32    `json:"seats_in_row"`
	Capacity   uint32    `json:"capacity"`
	CreatedAt  time.Time `json:"created_at"`
}

func toThemeView(t model.ShowTheme) themeView {
	return themeView{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func toShowView(s *model.AstronomyShow) showView {
	themes := make([]themeView, 0, len(s.Themes))
	for _, t := range s.Themes {
		themes = append(themes, toThemeView(t))
	}
	return showView{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Themes:      themes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toDomeView(d *model.PlanetariumDome) domeView {
	return domeView{
		ID:         d.ID,
		Name:       d.Name,
		Rows:       d.Rows,
		SeatsInRow: d.SeatsInRow,
		Capacity:   d.Capacity(),
		CreatedAt:  d.CreatedAt,
	}
}

// CreateTheme handles POST /v1/themes.
func (h *CatalogHandler) CreateTheme(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	theme := &model.ShowTheme{Name: name}
	if err := h.Themes.Create(ctx, theme); err != nil {
		if err == repository.ErrThemeExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "theme name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create theme"})
	}
	return c.JSON(http.StatusCreated, toThemeView(*theme))
}

// ListThemes handles GET /v1/themes.
func (h *CatalogHandler) ListThemes(c echo.Context) error {
	items, err := h.Themes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]themeView, 0, len(items))
	for _, t := range items {
		out = append(out, toThemeView(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CreateShow handles POST /v1/shows.  Every referenced theme ID must
// exist; a request naming an unknown theme is rejected as a whole.
func (h *CatalogHandler) CreateShow(c echo.Context) error {
	var body struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		ThemeIDs    []uint64 `json:"theme_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if len(body.ThemeIDs) > 0 {
		found, err := h.Themes.ExistingIDs(ctx, body.ThemeIDs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		for _, id := range body.ThemeIDs {
			if !found[id] {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown theme id " + strconv.FormatUint(id, 10)})
			}
		}
	}

	show := &model.AstronomyShow{Title: title, Description: strings.TrimSpace(body.Description)}
	if err := h.Shows.Create(ctx, show, body.ThemeIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create show"})
	}
	return c.JSON(http.StatusCreated, toShowView(show))
}

// ListShows handles GET /v1/shows with optional ?title= substring and
// ?themes=1,2,3 filters.
func (h *CatalogHandler) ListShows(c echo.Context) error {
	f := repository.ShowFilter{Title: strings.TrimSpace(c.QueryParam("title"))}
	if raw := c.QueryParam("themes"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid themes filter"})
			}
			f.ThemeIDs = append(f.ThemeIDs, id)
		}
	}
	items, err := h.Shows.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]showView, 0, len(items))
	for i := range items {
		out = append(out, toShowView(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetShow handles GET /v1/shows/:id.
func (h *CatalogHandler) GetShow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	show, err := h.Shows.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toShowView(show))
}

// maxDomeDim bounds the dome grid on either axis.  It keeps capacity
// and availability arithmetic far from the uint32 range while still
// allowing a grid three orders of magnitude beyond any real dome.
const maxDomeDim = 1000

// CreateDome handles POST /v1/domes.  Rows and seats_in_row must both
// be in 1..maxDomeDim; a dome's seat grid is fixed at creation.
func (h *CatalogHandler) CreateDome(c echo.Context) error {
	var body struct {
		Name       string `json:"name"`
		Rows       uint32 `json:"rows"`
		SeatsInRow uint32 `json:"seats_in_row"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.Rows == 0 || body.SeatsInRow == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rows and seats_in_row must be positive"})
	}
	if body.Rows > maxDomeDim || body.SeatsInRow > maxDomeDim {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rows and seats_in_row must be at most 1000"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dome := &model.PlanetariumDome{Name: name, Rows: body.Rows, SeatsInRow: body.SeatsInRow}
	if err := h.Domes.Create(ctx, dome); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create dome"})
	}
	return c.JSON(http.StatusCreated, toDomeView(dome))
}

// ListDomes handles GET /v1/domes.
func (h *CatalogHandler) ListDomes(c echo.Context) error {
	items, err := h.Domes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]domeView, 0, len(items))
	for i := range items {
		out = append(out, toDomeView(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetDome handles GET /v1/domes/:id.
func (h *CatalogHandler) GetDome(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	dome, err := h.Domes.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dome not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toDomeView(dome))
}
