package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const tournamentIDContextKey contextKey = "tournamentID"

// TournamentCtx извлекает {tournamentID} из URL и кладет его в контекст запроса.
// Некорректный ID - ответ 400.
func TournamentCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := parseTournamentID(chi.URLParam(r, "tournamentID"))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		ctx := context.WithValue(r.Context(), tournamentIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseTournamentID(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing tournamentID in URL path")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid tournamentID format: %q", raw)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid tournamentID value: %d", id)
	}
	return id, nil
}

// GetTournamentIDFromContext возвращает ID, сохраненный TournamentCtx.
func GetTournamentIDFromContext(ctx context.Context) (int, error) {
	id, ok := ctx.Value(tournamentIDContextKey).(int)
	if !ok {
		return 0, fmt.Errorf("tournament id not found in context")
	}
	return id, nil
}

// WithTournamentID stores id the way TournamentCtx does.
func WithTournamentID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, tournamentIDContextKey, id)
}
