// Package web serves the dashboard REST API and the Prometheus metrics
// endpoint over fiber.
package web

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"

	"telegram-moderation-bot/storage"
)

type Server struct {
	app   *fiber.App
	store *storage.Storage
}

// httpMetrics registers its collectors in the global registry, so it is
// created exactly once per process.
var httpMetrics = fiberprometheus.New("moderation-bot")

func NewServer(store *storage.Storage) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	httpMetrics.RegisterAt(app, "/metrics")
	app.Use(httpMetrics.Middleware)

	s := &Server{app: app, store: store}

	api := app.Group("/api")
	api.Get("/groups", s.listGroups)
	api.Get("/groups/:chatID/settings", s.getSettings)
	api.Patch("/groups/:chatID/settings", s.patchSettings)
	api.Get("/groups/:chatID/stats", s.getStats)
	api.Get("/groups/:chatID/logs", s.getLogs)
	api.Get("/groups/:chatID/warnings", s.getWarnings)
	api.Get("/logs/recent", s.getRecentLogs)
	api.Get("/stats/overview", s.getOverview)

	return s
}

// Listen blocks serving the API until Shutdown is called.
func (s *Server) Listen(addr string) error {
	slog.Info("web: Listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func chatIDParam(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("chatID"), 10, 64)
}

func (s *Server) listGroups(c *fiber.Ctx) error {
	groups, err := s.store.Groups()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list groups")
	}
	return c.JSON(groups)
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	settings, err := s.store.EnsureSettings(chatID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load settings")
	}
	return c.JSON(settings)
}

func (s *Server) patchSettings(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	var patch map[string]any
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	settings, err := s.store.UpdateSettings(chatID, patch)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(settings)
}

func (s *Server) getStats(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	stats, err := s.store.GetStats(chatID)
	if errors.Is(err, storage.ErrNotFound) {
		// A group with no recorded activity reports zeroes rather than 404.
		stats = &storage.BotStats{ChatID: chatID}
	} else if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load stats")
	}
	return c.JSON(stats)
}

func (s *Server) getLogs(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	logs, err := s.store.Logs(chatID, c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list logs")
	}
	return c.JSON(logs)
}

func (s *Server) getWarnings(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	warnings, err := s.store.ChatWarnings(chatID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list warnings")
	}
	return c.JSON(warnings)
}

func (s *Server) getRecentLogs(c *fiber.Ctx) error {
	logs, err := s.store.RecentLogs(c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list recent logs")
	}
	return c.JSON(logs)
}

// overview aggregates the per-group counters into process-wide totals.
type overview struct {
	Groups            int   `json:"groups"`
	MessagesProcessed int64 `json:"messagesProcessed"`
	MessagesDeleted   int64 `json:"messagesDeleted"`
	UsersWarned       int64 `json:"usersWarned"`
	UsersBanned       int64 `json:"usersBanned"`
	UsersKicked       int64 `json:"usersKicked"`
	UsersMuted        int64 `json:"usersMuted"`
	SpamBlocked       int64 `json:"spamBlocked"`
	ForceJoinBlocked  int64 `json:"forceJoinBlocked"`
}

func (s *Server) getOverview(c *fiber.Ctx) error {
	groups, err := s.store.Groups()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list groups")
	}
	allStats, err := s.store.AllStats()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load stats")
	}

	total := overview{Groups: len(groups)}
	for _, stats := range allStats {
		total.MessagesProcessed += stats.MessagesProcessed
		total.MessagesDeleted += stats.MessagesDeleted
		total.UsersWarned += stats.UsersWarned
		total.UsersBanned += stats.UsersBanned
		total.UsersKicked += stats.UsersKicked
		total.UsersMuted += stats.UsersMuted
		total.SpamBlocked += stats.SpamBlocked
		total.ForceJoinBlocked += stats.ForceJoinBlocked
	}
	return c.JSON(total)
}
