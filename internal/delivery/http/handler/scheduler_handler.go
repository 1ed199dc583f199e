package handler

import (
	"time"

	"rental-scout/internal/pkg/response"
	"rental-scout/internal/scheduler"

	"github.com/gofiber/fiber/v3"
)

type SchedulerHandler struct {
	sched *scheduler.Scheduler
}

func NewSchedulerHandler(sched *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{sched: sched}
}

func (h *SchedulerHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/status", h.Status)
	r.Post("/start", h.Start)
	r.Post("/stop", h.Stop)
	r.Post("/run", h.Run)
}

func (h *SchedulerHandler) Status(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.statusView())
}

func (h *SchedulerHandler) Start(c fiber.Ctx) error {
	started := h.sched.Start()
	data := h.statusView()
	data["started"] = started
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

func (h *SchedulerHandler) Stop(c fiber.Ctx) error {
	stopped := h.sched.Stop()
	data := h.statusView()
	data["stopped"] = stopped
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

func (h *SchedulerHandler) Run(c fiber.Ctx) error {
	res, err := h.sched.RunNow(c.Context())
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *SchedulerHandler) statusView() map[string]any {
	next := make([]string, 0)
	for _, t := range h.sched.NextFires() {
		next = append(next, t.Format(time.RFC3339))
	}
	return map[string]any{
		"running":    h.sched.Running(),
		"next_fires": next,
	}
}
