package presentation

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/RaikyD/laundry-queue/internal/application"
	"github.com/RaikyD/laundry-queue/internal/domain"
	"github.com/RaikyD/laundry-queue/internal/presentation/helpers"
)

const (
	clearedMessage     = "All data cleared successfully!"
	clearFailedMessage = "Error clearing data"
	completedShown     = 5
)

type QueueHandler struct {
	svc *application.QueueService
}

func NewQueueHandler(svc *application.QueueService) *QueueHandler {
	return &QueueHandler{svc: svc}
}

func (h *QueueHandler) Register(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/queue", h.GetQueue)
		r.Post("/customers", h.AddCustomer)
		r.Delete("/customers", h.ClearAll)
		r.Get("/customers/{id}", h.GetCustomer)
		r.Post("/customers/{id}/complete", h.MarkCompleted)
	})
}

type addCustomerRequest struct {
	Name         string `json:"name"`
	ClothesCount int    `json:"clothesCount"`
}

type pendingView struct {
	domain.Order
	Position int `json:"position"`
}

type queueView struct {
	DailyLimit      int               `json:"dailyLimit"`
	Stats           application.Stats `json:"stats"`
	Pending         []pendingView     `json:"pending"`
	Completed       []domain.Order    `json:"completed"`
	RecentCompleted []domain.Order    `json:"recentCompleted"`
}

func (h *QueueHandler) Health(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetQueue returns every derived view the page renders in one response.
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Snapshot()
	views := make([]pendingView, 0, len(snap.Pending))
	for i, o := range snap.Pending {
		views = append(views, pendingView{Order: o, Position: i + 1})
	}

	recent := snap.Completed
	if len(recent) > completedShown {
		recent = recent[len(recent)-completedShown:]
	}

	helpers.WriteJSON(w, http.StatusOK, queueView{
		DailyLimit:      snap.DailyLimit,
		Stats:           snap.Stats,
		Pending:         views,
		Completed:       snap.Completed,
		RecentCompleted: recent,
	})
}

// AddCustomer accepts either a JSON body or a classic form post:
// - application/json:                  {"name": "...", "clothesCount": 3}
// - application/x-www-form-urlencoded: name=...&clothesCount=3
func (h *QueueHandler) AddCustomer(w http.ResponseWriter, r *http.Request) {
	mediatype, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var req addCustomerRequest
	switch mediatype {
	case "application/json", "":
		if err := helpers.DecodeJSON(r.Body, &req); err != nil {
			helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			helpers.HttpError(w, http.StatusBadRequest, "invalid form: "+err.Error())
			return
		}
		req.Name = r.PostForm.Get("name")
		n, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("clothesCount")))
		if err != nil {
			helpers.HttpError(w, http.StatusBadRequest, "clothesCount must be a number")
			return
		}
		req.ClothesCount = n
	default:
		helpers.HttpError(w, http.StatusUnsupportedMediaType, "unsupported content-type")
		return
	}

	o, err := h.svc.Add(req.Name, req.ClothesCount)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			helpers.HttpError(w, http.StatusBadRequest, err.Error())
			return
		}
		helpers.HttpError(w, http.StatusInternalServerError, "failed to add customer")
		return
	}

	pos, _ := h.svc.Position(o.ID)
	helpers.WriteJSON(w, http.StatusCreated, pendingView{Order: o, Position: pos})
}

func (h *QueueHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	o, ok := h.svc.Get(id)
	if !ok {
		helpers.HttpError(w, http.StatusNotFound, "order not found")
		return
	}
	pos, _ := h.svc.Position(o.ID)
	helpers.WriteJSON(w, http.StatusOK, pendingView{Order: o, Position: pos})
}

func (h *QueueHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		helpers.HttpError(w, http.StatusBadRequest, "id is empty")
		return
	}

	o, err := h.svc.Complete(id)
	if err != nil {
		if errors.Is(err, application.ErrOrderNotFound) {
			helpers.HttpError(w, http.StatusNotFound, "order not found")
			return
		}
		helpers.HttpError(w, http.StatusInternalServerError, "failed to complete order")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, o)
}

// ClearAll erases every order. The page asks for confirmation before calling it.
// The response reports the outcome of the erase even if the client went away.
func (h *QueueHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(); err != nil {
		helpers.HttpError(w, http.StatusInternalServerError, clearFailedMessage)
		return
	}
	helpers.WriteMessage(w, http.StatusOK, clearedMessage)
}
