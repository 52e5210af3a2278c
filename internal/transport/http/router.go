package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"carlink/internal/domain"
	"carlink/internal/dto"
	"carlink/internal/service"
	"carlink/internal/store"
	"carlink/internal/token"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(auth service.AuthService, cars service.CarService) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Put("/auth/email", func(w http.ResponseWriter, r *http.Request) {
		var req dto.StartLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		challenge, err := auth.StartLogin(r.Context(), req.EmailAddress)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dto.ChallengeResponse{
			ChallengeToken: challenge,
			ExpiresIn:      int64(token.ChallengeTTL.Seconds()),
		})
	})

	r.Post("/auth/email/verify", func(w http.ResponseWriter, r *http.Request) {
		var req dto.VerifyLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		session, err := auth.VerifyLogin(r.Context(), req.JWT, req.AuthCode)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dto.SessionResponse{
			SessionToken: session,
			ExpiresIn:    int64(token.SessionTTL.Seconds()),
		})
	})

	r.Get("/user/cars", func(w http.ResponseWriter, r *http.Request) {
		sess, ok := bearer(w, r)
		if !ok {
			return
		}
		list, refreshed, err := cars.List(r.Context(), sess)
		if err != nil {
			writeError(w, err)
			return
		}
		relayRefreshed(w, refreshed)
		writeJSON(w, http.StatusOK, dto.GetCarsResponse{Cars: list})
	})

	r.Put("/user/cars/add", func(w http.ResponseWriter, r *http.Request) {
		sess, ok := bearer(w, r)
		if !ok {
			return
		}
		var req dto.CreateCarRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		created, refreshed, err := cars.Register(r.Context(), sess, req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		relayRefreshed(w, refreshed)
		writeJSON(w, http.StatusOK, created)
	})

	r.Delete("/user/cars/{uuid}", func(w http.ResponseWriter, r *http.Request) {
		sess, ok := bearer(w, r)
		if !ok {
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "uuid"))
		if err != nil {
			http.Error(w, "invalid car id", http.StatusBadRequest)
			return
		}
		list, refreshed, err := cars.Deregister(r.Context(), sess, id)
		if err != nil {
			writeError(w, err)
			return
		}
		relayRefreshed(w, refreshed)
		writeJSON(w, http.StatusOK, dto.GetCarsResponse{Cars: list})
	})

	r.Post("/cars/{uuid}/ping", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "uuid"))
		if err != nil {
			http.Error(w, "invalid car id", http.StatusBadRequest)
			return
		}
		if err := cars.Heartbeat(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/cars/{uuid}/state", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "uuid"))
		if err != nil {
			http.Error(w, "invalid car id", http.StatusBadRequest)
			return
		}
		var req dto.TelemetryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := cars.ReportState(r.Context(), id, &req.Telemetry); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	tok := r.Header.Get("Authorization")
	if tok == "" {
		http.Error(w, "no authorization token", http.StatusUnauthorized)
		return "", false
	}
	return tok, true
}

// relayRefreshed surfaces a reissued session token so the client's stored
// credential stays valid without an explicit re-login.
func relayRefreshed(w http.ResponseWriter, refreshed string) {
	if refreshed != "" {
		w.Header().Set("Authorization", refreshed)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		status = http.StatusBadRequest
	case errors.Is(err, token.ErrBadToken),
		errors.Is(err, domain.ErrNoSuchChallenge),
		errors.Is(err, domain.ErrCodeMismatch):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrTooManyCars):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrCarNotFound), errors.Is(err, store.ErrDoesNotExist):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrQuery),
		errors.Is(err, store.ErrConnection),
		errors.Is(err, store.ErrServer):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}
