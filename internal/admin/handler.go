package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/oxbow-chat/oxbow/internal/channel"
	"github.com/oxbow-chat/oxbow/internal/command"
	"github.com/oxbow-chat/oxbow/internal/platform/httpx"
)

// CommandCatalogPort is the command data the API reads.
type CommandCatalogPort interface {
	ListWithAliases(ctx context.Context, offset, limit int) ([]command.WithAliases, int, error)
	Get(ctx context.Context, id int32) (command.Attributes, error)
}

// ChannelCatalogPort is the channel data the API reads.
type ChannelCatalogPort interface {
	List(ctx context.Context) ([]channel.Channel, error)
	Get(ctx context.Context, name string) (channel.Channel, error)
}

// Handler serves the read-only catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	commands CommandCatalogPort
	channels ChannelCatalogPort
	validate *validator.Validate
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, commands CommandCatalogPort, channels ChannelCatalogPort) *Handler {
	return &Handler{
		logger:   logger,
		commands: commands,
		channels: channels,
		validate: validator.New(),
	}
}

type listQuery struct {
	Page    int `validate:"gte=1"`
	PerPage int `validate:"gte=1,lte=100"`
}

type pagedResponse struct {
	Items   any `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func (h *Handler) ListCommands(w http.ResponseWriter, r *http.Request) {
	q := listQuery{Page: 1, PerPage: 25}
	if v := r.URL.Query().Get("page"); v != "" {
		q.Page, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		q.PerPage, _ = strconv.Atoi(v)
	}
	if err := h.validate.Struct(q); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid pagination")
		return
	}

	items, total, err := h.commands.ListWithAliases(r.Context(), (q.Page-1)*q.PerPage, q.PerPage)
	if err != nil {
		h.logger.Error("list commands", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "")
		return
	}
	if items == nil {
		items = []command.WithAliases{}
	}
	httpx.JSON(w, http.StatusOK, pagedResponse{Items: items, Total: total, Page: q.Page, PerPage: q.PerPage})
}

func (h *Handler) GetCommand(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid command id")
		return
	}
	attrs, err := h.commands.Get(r.Context(), int32(id))
	if errors.Is(err, command.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "command not found")
		return
	}
	if err != nil {
		h.logger.Error("get command", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "")
		return
	}
	httpx.JSON(w, http.StatusOK, attrs)
}

func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channels.List(r.Context())
	if err != nil {
		h.logger.Error("list channels", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "")
		return
	}
	if channels == nil {
		channels = []channel.Channel{}
	}
	httpx.JSON(w, http.StatusOK, channels)
}

func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ch, err := h.channels.Get(r.Context(), name)
	if errors.Is(err, channel.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "channel not found")
		return
	}
	if err != nil {
		h.logger.Error("get channel", slog.String("name", name), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "")
		return
	}
	httpx.JSON(w, http.StatusOK, ch)
}
