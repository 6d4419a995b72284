package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"collabHubAPI/internal/types/help"
	"collabHubAPI/middleware"
	"collabHubAPI/services"
)

type HelpHandler struct {
	helpService *services.HelpService
}

func NewHelpHandler(helpService *services.HelpService) *HelpHandler {
	return &HelpHandler{
		helpService: helpService,
	}
}

// GET /api/v1/help/articles?category= - Help center articles
func (h *HelpHandler) GetArticles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	articles, err := h.helpService.ListArticles(ctx, r.URL.Query().Get("category"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, articles)
}

// GET /api/v1/help/articles/{slug} - One article
func (h *HelpHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	article, err := h.helpService.GetArticle(ctx, vars["slug"])
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if article == nil {
		respondWithError(w, http.StatusNotFound, "Article not found")
		return
	}

	respondWithJSON(w, http.StatusOK, article)
}

// POST /api/v1/help/support - Submit a support ticket
func (h *HelpHandler) SubmitSupportRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req help.SupportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Message) == "" {
		respondWithError(w, http.StatusBadRequest, "Subject and message are required")
		return
	}

	if err := h.helpService.SubmitSupportRequest(ctx, clerkID, &req); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Support request submitted"})
}
