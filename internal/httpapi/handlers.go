package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/DoyleJ11/bracket-battle/internal/store"
)

const (
	maxBodyBytes = 64 << 10
	qrSize       = 256
)

// Contestants use the same image_url the store returns. imageUrl is still
// read for older clients.
type contestantRequest struct {
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	ImageURLOld string `json:"imageUrl"`
}

type createBracketRequest struct {
	Title       string              `json:"title"`
	Subtitle    string              `json:"subtitle"`
	Contestants []contestantRequest `json:"contestants"`
	IsPublic    *bool               `json:"isPublic"`
	Public      *bool               `json:"public"`
	Code        string              `json:"code"`
}

func (req createBracketRequest) public() bool {
	switch {
	case req.IsPublic != nil:
		return *req.IsPublic
	case req.Public != nil:
		return *req.Public
	default:
		return false
	}
}

func (req createBracketRequest) bracket() store.NewBracket {
	b := store.NewBracket{
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Public:   req.public(),
		Code:     req.Code,
	}
	for _, c := range req.Contestants {
		img := c.ImageURL
		if img == "" {
			img = c.ImageURLOld
		}
		b.Contestants = append(b.Contestants, store.Contestant{Name: c.Name, ImageURL: img})
	}
	return b
}

func CreateBracket(s store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBracketRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		code, err := s.Create(r.Context(), req.bracket())
		switch {
		case err == nil:
		case errors.Is(err, store.ErrInvalidBracket), errors.Is(err, store.ErrInvalidCode):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, store.ErrCodeTaken):
			writeError(w, http.StatusConflict, err.Error())
			return
		default:
			log.Error("create bracket", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create bracket")
			return
		}

		log.Info("bracket created", zap.String("code", code), zap.Bool("public", req.public()))
		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func CodeUnique(s store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unique, err := s.IsCodeUnique(r.Context(), chi.URLParam(r, "code"))
		if errors.Is(err, store.ErrInvalidCode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error("check code", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to check code")
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Unique bool `json:"unique"`
		}{Unique: unique})
	}
}

func PublicBrackets(s store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.ListPublic(r.Context())
		if err != nil {
			log.Error("list public brackets", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list brackets")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// SessionQR renders a PNG QR code pointing players at the join page.
func SessionQR(reg Registry, publicURL string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := reg.Get(r.Context(), id); !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(JoinURL(publicURL, id), qrcode.Medium, qrSize)
		if err != nil {
			log.Error("qr generation", zap.String("session_id", id), zap.Error(err))
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

func JoinURL(publicURL, sessionID string) string {
	return publicURL + "/join?" + url.Values{"session": {sessionID}}.Encode()
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
