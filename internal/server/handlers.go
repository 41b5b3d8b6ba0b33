package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/service"
)

// sessionHandler wires HTTP to the session's orchestrator.
type sessionHandler struct {
	sessions *Registry
}

func newSessionHandler(sessions *Registry) *sessionHandler {
	return &sessionHandler{sessions: sessions}
}

// Register mounts the session routes on the given router group.
func (h *sessionHandler) Register(r fiber.Router) {
	r.Get("/session", h.snapshot)
	r.Get("/search", h.search)
	r.Post("/filter", h.selectFilter)
	r.Get("/more", h.loadMore)
	r.Get("/pages/:n", h.goToPage)
	r.Get("/repos/:owner/:name/issues", h.issues)
	r.Post("/explain", h.explain)
}

// acquire resolves the request's session and refreshes its cookie.
func (h *sessionHandler) acquire(c *fiber.Ctx) *session {
	id, s := h.sessions.Acquire(c.Cookies(SessionCookie))
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return s
}

func parseFilter(raw string, fallback model.FilterKind) (model.FilterKind, error) {
	if raw == "" {
		return fallback, nil
	}
	f, err := model.ParseFilterKind(raw)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return f, nil
}

func applySort(c *fiber.Ctx, s *session) error {
	raw := c.Query("sort")
	if raw == "" {
		return nil
	}
	order, ok := model.ParseSortOrder(raw)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "sort must be relevance or stars")
	}
	s.orch.SetSort(order)
	return nil
}

// snapshot handles GET /session?sort=
func (h *sessionHandler) snapshot(c *fiber.Ctx) error {
	s := h.acquire(c)
	if err := applySort(c, s); err != nil {
		return err
	}
	return c.JSON(s.orch.Snapshot())
}

// search handles GET /search?filter=bounty&language=go&sort=stars
func (h *sessionHandler) search(c *fiber.Ctx) error {
	s := h.acquire(c)
	filter, err := parseFilter(c.Query("filter"), h.sessions.Filter(s))
	if err != nil {
		return err
	}
	if err := applySort(c, s); err != nil {
		return err
	}
	h.sessions.SelectFilter(s, filter)

	snap, err := s.orch.Search(c.UserContext(), filter, strings.TrimSpace(c.Query("language")))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

type filterRequest struct {
	Filter   string `json:"filter"`
	Language string `json:"language"`
}

type filterResponse struct {
	Filter   model.FilterKind  `json:"filter"`
	Searched bool              `json:"searched"`
	Snapshot *service.Snapshot `json:"snapshot,omitempty"`
}

// selectFilter handles POST /filter. Filters that search on selection run
// the search right away.
func (h *sessionHandler) selectFilter(c *fiber.Ctx) error {
	var req filterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Filter == "" {
		return fiber.NewError(fiber.StatusBadRequest, "filter is required")
	}
	s := h.acquire(c)
	filter, err := parseFilter(req.Filter, "")
	if err != nil {
		return err
	}
	h.sessions.SelectFilter(s, filter)

	resp := filterResponse{Filter: filter}
	if service.AutoSearches(filter) {
		snap, err := s.orch.Search(c.UserContext(), filter, strings.TrimSpace(req.Language))
		if err != nil {
			return err
		}
		resp.Searched = true
		resp.Snapshot = &snap
	}
	return c.JSON(resp)
}

// loadMore handles GET /more
func (h *sessionHandler) loadMore(c *fiber.Ctx) error {
	s := h.acquire(c)
	snap, err := s.orch.LoadMore(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

type pageResponse struct {
	Page       int                `json:"page"`
	TotalPages int                `json:"totalPages"`
	HasMore    bool               `json:"hasMore"`
	Items      []model.Repository `json:"items"`
}

// goToPage handles GET /pages/:n
func (h *sessionHandler) goToPage(c *fiber.Ctx) error {
	n, err := c.ParamsInt("n")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "page must be a number")
	}
	s := h.acquire(c)
	items, err := s.orch.GoToPage(c.UserContext(), n)
	if err != nil {
		return err
	}
	snap := s.orch.Snapshot()
	return c.JSON(pageResponse{
		Page:       snap.Page,
		TotalPages: snap.TotalPages,
		HasMore:    snap.HasMore,
		Items:      model.Sorted(items, snap.Sort),
	})
}

type issuesResponse struct {
	Repo   string           `json:"repo"`
	Filter model.FilterKind `json:"filter"`
	Issues []model.Issue    `json:"issues"`
}

// issues handles GET /repos/:owner/:name/issues?filter=
func (h *sessionHandler) issues(c *fiber.Ctx) error {
	s := h.acquire(c)
	filter, err := parseFilter(c.Query("filter"), h.sessions.Filter(s))
	if err != nil {
		return err
	}
	repo := c.Params("owner") + "/" + c.Params("name")

	issues, err := s.orch.ViewIssues(c.UserContext(), repo, filter)
	if err != nil {
		return err
	}
	return c.JSON(issuesResponse{Repo: repo, Filter: filter, Issues: issues})
}

type explainRequest struct {
	Repo  string      `json:"repo"`
	Issue model.Issue `json:"issue"`
}

// explain handles POST /explain. It always answers 200; a failed
// explanation carries the fallback text.
func (h *sessionHandler) explain(c *fiber.Ctx) error {
	var req explainRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !strings.Contains(req.Repo, "/") || req.Issue.Number <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "repo (owner/name) and issue.number are required")
	}
	s := h.acquire(c)
	text := s.orch.Explain(c.UserContext(), req.Repo, req.Issue)
	return c.JSON(fiber.Map{"explanation": text})
}
