package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/xrayboard/internal/model"
	"github.com/user/xrayboard/internal/storage"
	"github.com/user/xrayboard/internal/usage"
	"github.com/user/xrayboard/internal/util"
	"github.com/user/xrayboard/internal/xray"
)

// Handlers contains HTTP handlers.
type Handlers struct {
	config  *util.Config
	cache   *usage.ReportCache
	agg     *usage.Aggregator
	manager *xray.Manager
	events  *storage.EventStorage
}

// NewHandlers creates new handlers.
func NewHandlers(cfg *util.Config, cache *usage.ReportCache, agg *usage.Aggregator, manager *xray.Manager, events *storage.EventStorage) *Handlers {
	return &Handlers{
		config:  cfg,
		cache:   cache,
		agg:     agg,
		manager: manager,
		events:  events,
	}
}

// Health reports whether the data directory is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	_, err := h.agg.ScanDates()
	writeJSON(w, map[string]any{
		"ok":       err == nil,
		"data_dir": h.agg.DataDir(),
	})
}

// APIDashboard serves the full dashboard report. Responses carry a strong
// ETag over the response body; a matching If-None-Match short-circuits to
// 304 with no body. Requests pinned to a historical end date via ?to=
// bypass the result cache.
func (h *Handlers) APIDashboard(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", h.config.DefaultLookbackDays)
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	var (
		entry *usage.CachedReport
		err   error
	)
	if to == "" {
		entry, err = h.cache.GetOrCompute(days)
	} else {
		end, resolveErr := h.agg.ResolveEndDate(to)
		if resolveErr != nil {
			writeError(w, resolveErr, http.StatusInternalServerError)
			return
		}
		entry, err = h.cache.Compute(end, days)
	}
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	if inm := r.Header.Get("If-None-Match"); inm != "" {
		if strings.Trim(inm, `"`) == entry.ETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", `"`+entry.ETag+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(entry.Body)
}

// APIDays lists every day any source file exists for.
func (h *Handlers) APIDays(w http.ResponseWriter, r *http.Request) {
	dates, err := h.agg.ScanDates()
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, dates)
}

// APISummary serves the flat per-user daily traffic rows.
func (h *Handlers) APISummary(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, "traffic")
}

// APISummaryConns serves the flat per-user daily connection rows.
func (h *Handlers) APISummaryConns(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, "conns")
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request, kind string) {
	days := intParam(r, "days", 7)
	end, err := h.agg.ResolveEndDate(strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	pack, err := h.agg.Summary(end, days, kind)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, pack)
}

// APIUserDay ranks one user's destinations by traffic for a single day.
func (h *Handlers) APIUserDay(w http.ResponseWriter, r *http.Request) {
	h.userDay(w, r, "traffic")
}

// APIUserDayConns ranks one user's destinations by connections for a
// single day.
func (h *Handlers) APIUserDayConns(w http.ResponseWriter, r *http.Request) {
	h.userDay(w, r, "conns")
}

func (h *Handlers) userDay(w http.ResponseWriter, r *http.Request, kind string) {
	day := strings.TrimSpace(r.URL.Query().Get("date"))
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	top := intParam(r, "top", 100)
	if day == "" || user == "" {
		writeJSON(w, []model.TopDomainEntry{})
		return
	}
	writeJSON(w, h.agg.TopForUserDay(day, user, kind, top))
}

// APIGetUsers returns the provisioned clients, or with ?date= the users
// seen in that day's files merged with the client list.
func (h *Handlers) APIGetUsers(w http.ResponseWriter, r *http.Request) {
	if day := strings.TrimSpace(r.URL.Query().Get("date")); day != "" {
		writeJSON(w, h.agg.UsersForDate(day))
		return
	}
	if h.manager == nil {
		writeJSON(w, map[string]any{"users": []model.Client{}})
		return
	}
	clients, err := h.manager.ListClients()
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"users": clients})
}

type userRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) userFromBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		writeError(w, fmt.Errorf("method not allowed"), http.StatusMethodNotAllowed)
		return "", false
	}
	if h.manager == nil {
		writeError(w, fmt.Errorf("proxy management unavailable"), http.StatusServiceUnavailable)
		return "", false
	}
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return "", false
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeError(w, fmt.Errorf("email required"), http.StatusBadRequest)
		return "", false
	}
	return email, true
}

// APIAddUser provisions a new client.
func (h *Handlers) APIAddUser(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userFromBody(w, r)
	if !ok {
		return
	}
	client, err := h.manager.AddClient(r.Context(), email)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	h.logEvent("USER", "INFO", "client added: "+email, "")
	writeJSON(w, map[string]any{"user": client})
}

// APIDeleteUser removes a client.
func (h *Handlers) APIDeleteUser(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userFromBody(w, r)
	if !ok {
		return
	}
	if err := h.manager.RemoveClient(r.Context(), email); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	h.logEvent("USER", "WARN", "client removed: "+email, "")
	writeJSON(w, map[string]any{"ok": true})
}

// APIKickUser rotates a client's credential, dropping its sessions.
func (h *Handlers) APIKickUser(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userFromBody(w, r)
	if !ok {
		return
	}
	client, err := h.manager.RotateClient(r.Context(), email)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	h.logEvent("USER", "WARN", "client rotated: "+email, "")
	writeJSON(w, map[string]any{"new_uuid": client.ID})
}

// APIUserLink builds the share link for a client.
func (h *Handlers) APIUserLink(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, fmt.Errorf("email required"), http.StatusBadRequest)
		return
	}
	if h.manager == nil {
		writeError(w, fmt.Errorf("proxy management unavailable"), http.StatusServiceUnavailable)
		return
	}
	link, err := h.manager.BuildLink(r.Context(), email)
	if err != nil {
		h.logEvent("LINK", "ERROR", "link build failed: "+email, err.Error())
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	h.logEvent("LINK", "INFO", "link built: "+email, "")
	writeJSON(w, map[string]any{"link": link})
}

// APIServiceStatus reports the proxy service state.
func (h *Handlers) APIServiceStatus(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeError(w, fmt.Errorf("proxy management unavailable"), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.manager.Status(r.Context(), h.config.XrayService))
}

// APIServiceRestart restarts the proxy service.
func (h *Handlers) APIServiceRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, fmt.Errorf("method not allowed"), http.StatusMethodNotAllowed)
		return
	}
	if h.manager == nil {
		writeError(w, fmt.Errorf("proxy management unavailable"), http.StatusServiceUnavailable)
		return
	}
	if err := h.manager.Restart(r.Context(), h.config.XrayService); err != nil {
		h.logEvent("SERVICE", "ERROR", "restart failed", err.Error())
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	h.logEvent("SERVICE", "INFO", "service restarted", "")
	writeJSON(w, map[string]any{"ok": true})
}

// APIGetEvents returns the newest audit log entries.
func (h *Handlers) APIGetEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSON(w, []*model.Event{})
		return
	}
	events, err := h.events.Recent(intParam(r, "limit", 100))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []*model.Event{}
	}
	writeJSON(w, events)
}

func (h *Handlers) logEvent(eventType, severity, message, detail string) {
	if h.events == nil {
		return
	}
	err := h.events.Save(&model.Event{
		Type:     eventType,
		Severity: severity,
		Message:  message,
		Detail:   detail,
	})
	if err != nil {
		util.Warn("failed to record event: %v", err)
	}
}

func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
