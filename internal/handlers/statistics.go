package handlers

import (
	"net/http"
	"strconv"
	"time"

	"expense-api/internal/models"
)

type monthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// statisticsResponse adds navigation to the neighbouring months.
type statisticsResponse struct {
	*models.MonthlySummary
	MonthName      string   `json:"month_name"`
	Previous       monthRef `json:"previous"`
	Next           monthRef `json:"next"`
	IsCurrentMonth bool     `json:"is_current_month"`
}

// Statistics returns the caller's per-category totals for a month.
// year and month query parameters default to the current month.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	now := h.now()
	year := now.Year()
	month := int(now.Month())

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		if y, err := strconv.Atoi(yearStr); err == nil {
			year = y
		}
	}
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		if m, err := strconv.Atoi(monthStr); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}

	ctx, cancel := h.storeContext()
	defer cancel()

	summary, err := h.expenses.MonthlySummary(ctx, user.ID, year, month)
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}

	prev := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	next := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	writeJSON(w, http.StatusOK, statisticsResponse{
		MonthlySummary: summary,
		MonthName:      time.Month(month).String(),
		Previous:       monthRef{Year: prev.Year(), Month: int(prev.Month())},
		Next:           monthRef{Year: next.Year(), Month: int(next.Month())},
		IsCurrentMonth: year == now.Year() && month == int(now.Month()),
	})
}
