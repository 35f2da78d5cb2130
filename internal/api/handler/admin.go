package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/mcoot/osrsbingo/internal/api/middleware"
	"github.com/mcoot/osrsbingo/internal/api/request"
	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/services/auth"
)

// Size in pixels of the webhook QR code
const qrSize = 256

// AdminHandler handles admin login and webhook setup endpoints
type AdminHandler struct {
	authService auth.ServiceInterface
	publicURL   string
	ingestKey   string
}

// NewAdminHandler creates a new admin handler. publicURL is the external
// base URL of the server; when empty it is derived from each request.
func NewAdminHandler(authService auth.ServiceInterface, publicURL, ingestKey string) *AdminHandler {
	return &AdminHandler{
		authService: authService,
		publicURL:   strings.TrimSuffix(publicURL, "/"),
		ingestKey:   ingestKey,
	}
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    token.Token,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, http.StatusOK, response.Token{Token: token.Token, ExpiresAt: token.ExpiresAt})
}

// Logout handles POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(middleware.GetToken(r.Context()))

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	response.NoContent(w)
}

// WebhookInfo handles GET /api/v1/webhook
func (h *AdminHandler) WebhookInfo(w http.ResponseWriter, r *http.Request) {
	base := h.baseURL(r)
	response.JSON(w, http.StatusOK, response.WebhookInfo{
		DinkURL:   h.withKey(base + "/api/v1/webhooks/dink"),
		DropsURL:  base + "/api/v1/drops",
		KeyNeeded: h.authService.IngestKeyRequired(),
	})
}

// WebhookQR handles GET /api/v1/webhook/qr.png
func (h *AdminHandler) WebhookQR(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(h.withKey(h.baseURL(r)+"/api/v1/webhooks/dink"), qrcode.Medium, qrSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.PNG(w, png)
}

func (h *AdminHandler) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func (h *AdminHandler) withKey(u string) string {
	if h.ingestKey == "" {
		return u
	}
	return u + "?key=" + url.QueryEscape(h.ingestKey)
}
