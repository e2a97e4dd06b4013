package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vetbook-app/vetbook/services/clinic-service/internal/booking"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/directory"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/schedule"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/storage"
)

// DirectoryHandler is the admin surface: professionals, clients, pets and
// shift templates. Professional writes refresh the in-memory cache before
// the response goes out.
type DirectoryHandler struct {
	repo      *directory.Repository
	templates *storage.TemplateRepository
	cache     *directory.ProfessionalCache
	logger    *slog.Logger
}

func NewDirectoryHandler(repo *directory.Repository, templates *storage.TemplateRepository, cache *directory.ProfessionalCache, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{repo: repo, templates: templates, cache: cache, logger: logger}
}

type professionalRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Active    *bool  `json:"active"`
}

// Professionals handles GET (list) and POST (create/update) on
// /api/v1/admin/professionals.
func (h *DirectoryHandler) Professionals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"professionals": h.cache.List()})
	case http.MethodPost:
		h.upsertProfessional(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DirectoryHandler) upsertProfessional(w http.ResponseWriter, r *http.Request) {
	var req professionalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if req.ID == "" {
		p, err := h.repo.CreateProfessional(ctx, req.Name, strings.TrimSpace(req.Specialty))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.refreshCache(r)
		writeJSON(w, http.StatusCreated, p)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	if err := h.repo.UpdateProfessional(ctx, req.ID, req.Name, strings.TrimSpace(req.Specialty), active); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.refreshCache(r)
	p, err := h.repo.GetProfessional(ctx, req.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type clientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Clients handles POST /api/v1/admin/clients.
func (h *DirectoryHandler) Clients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		http.Error(w, "name and email required", http.StatusBadRequest)
		return
	}

	c, err := h.repo.CreateClient(r.Context(), req.Name, req.Email, strings.TrimSpace(req.Phone))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type petRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Species  string `json:"species"`
	Breed    string `json:"breed"`
}

// Pets handles POST (create) and GET ?client_id= (list) on /api/v1/admin/pets.
func (h *DirectoryHandler) Pets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
		if clientID == "" {
			http.Error(w, "client_id required", http.StatusBadRequest)
			return
		}
		pets, err := h.repo.ListPetsByClient(r.Context(), clientID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if pets == nil {
			pets = []directory.Pet{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"pets": pets})
	case http.MethodPost:
		var req petRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.ClientID = strings.TrimSpace(req.ClientID)
		req.Name = strings.TrimSpace(req.Name)
		if req.ClientID == "" || req.Name == "" {
			http.Error(w, "client_id and name required", http.StatusBadRequest)
			return
		}
		if _, err := h.repo.GetClient(r.Context(), req.ClientID); err != nil {
			h.writeError(w, r, err)
			return
		}
		p, err := h.repo.CreatePet(r.Context(), req.ClientID, req.Name, strings.TrimSpace(req.Species), strings.TrimSpace(req.Breed))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type templateRequest struct {
	ProfessionalID string `json:"professional_id"`
	Weekday        int    `json:"weekday"`
	Start          string `json:"start"`
	End            string `json:"end"`
	SlotMinutes    int    `json:"slot_minutes"`
}

type templateItem struct {
	ID             string `json:"id"`
	ProfessionalID string `json:"professional_id"`
	Weekday        int    `json:"weekday"`
	Start          string `json:"start"`
	End            string `json:"end"`
	SlotMinutes    int    `json:"slot_minutes"`
}

// Templates handles GET ?professional_id=, POST (create) and DELETE ?id= on
// /api/v1/admin/templates. Weekday follows time.Weekday: 0 is Sunday.
func (h *DirectoryHandler) Templates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
		if professionalID == "" {
			http.Error(w, "professional_id required", http.StatusBadRequest)
			return
		}
		templates, err := h.templates.ListForProfessional(r.Context(), professionalID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		items := make([]templateItem, 0, len(templates))
		for _, tpl := range templates {
			items = append(items, templateItem{
				ID:             tpl.ID,
				ProfessionalID: tpl.ProfessionalID,
				Weekday:        int(tpl.Weekday),
				Start:          schedule.FormatClock(tpl.StartMinute),
				End:            schedule.FormatClock(tpl.EndMinute),
				SlotMinutes:    tpl.SlotMinutes,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"templates": items})
	case http.MethodPost:
		h.createTemplate(w, r)
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.templates.Delete(r.Context(), id); err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DirectoryHandler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	if req.ProfessionalID == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}
	if !h.cache.Active(req.ProfessionalID) {
		http.Error(w, "professional not found", http.StatusNotFound)
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		http.Error(w, "weekday must be 0 (Sunday) through 6 (Saturday)", http.StatusBadRequest)
		return
	}

	startMin, err := schedule.ParseClock(strings.TrimSpace(req.Start))
	if err != nil {
		http.Error(w, "invalid start time", http.StatusBadRequest)
		return
	}
	endMin, err := schedule.ParseClock(strings.TrimSpace(req.End))
	if err != nil {
		http.Error(w, "invalid end time", http.StatusBadRequest)
		return
	}
	if startMin >= endMin {
		http.Error(w, "start must be before end", http.StatusBadRequest)
		return
	}
	if req.SlotMinutes <= 0 {
		http.Error(w, "slot_minutes must be positive", http.StatusBadRequest)
		return
	}

	id, err := h.templates.Create(r.Context(), booking.ShiftTemplate{
		ProfessionalID: req.ProfessionalID,
		Weekday:        time.Weekday(req.Weekday),
		StartMinute:    startMin,
		EndMinute:      endMin,
		SlotMinutes:    req.SlotMinutes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, templateItem{
		ID:             id,
		ProfessionalID: req.ProfessionalID,
		Weekday:        req.Weekday,
		Start:          schedule.FormatClock(startMin),
		End:            schedule.FormatClock(endMin),
		SlotMinutes:    req.SlotMinutes,
	})
}

func (h *DirectoryHandler) refreshCache(r *http.Request) {
	if err := h.cache.Refresh(r.Context()); err != nil {
		h.logger.Warn("professional cache refresh failed", "err", err)
	}
}

func (h *DirectoryHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("directory request failed", "path", r.URL.Path, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
