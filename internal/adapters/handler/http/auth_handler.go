package http

import (
	"net/http"
	"time"

	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type CookieConfig struct {
	Domain          string
	SameSite        http.SameSite
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	redirectURL string
	cookies     CookieConfig
}

func NewAuthHandler(authService ports.AuthService, redirectURL string, cookies CookieConfig) *AuthHandler {
	if cookies.SameSite == 0 {
		cookies.SameSite = http.SameSiteLaxMode
	}
	if cookies.AccessTokenTTL <= 0 {
		cookies.AccessTokenTTL = 15 * time.Minute
	}
	if cookies.RefreshTokenTTL <= 0 {
		cookies.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &AuthHandler{
		authService: authService,
		redirectURL: redirectURL,
		cookies:     cookies,
	}
}

type signupRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Signup godoc
// @Summary      Creates a password account
// @Description  New accounts are voters. An authenticated admin may pick the role.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400,409
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), IdentityFrom(r.Context()), ports.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login godoc
// @Summary      Logs in with email and password
// @Description  Sets the access and refresh token cookies and returns both tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      401
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	accessToken, refreshToken, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setAccessTokenCookie(w, accessToken)
	h.setRefreshTokenCookie(w, refreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, domain.NewValidationError("failed to parse form"))
		return
	}

	credential := r.FormValue("credential")
	if credential == "" {
		writeError(w, r, domain.NewValidationError("missing credential"))
		return
	}

	accessToken, refreshToken, err := h.authService.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setAccessTokenCookie(w, accessToken)
	h.setRefreshTokenCookie(w, refreshToken)

	http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
}

// Refresh godoc
// @Summary      Refreshes the authenticated user's access token
// @Description  Creates a new access token cookie based on the refresh token. This cookie is used as authentication for `/api` calls.
// @Tags         auth
// @Accept       json
// @Success      200
// @Failure      401
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, r, domain.ErrUnauthorized)
		return
	}

	accessToken, refreshToken, err := h.authService.RefreshAccessToken(r.Context(), cookie.Value)
	if err != nil {
		h.expireCookies(w)
		writeError(w, r, err)
		return
	}

	h.setAccessTokenCookie(w, accessToken)

	// If refresh token was rotated, update it too
	if refreshToken != "" && refreshToken != cookie.Value {
		h.setRefreshTokenCookie(w, refreshToken)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "access_token": accessToken})
}

// Logout godoc
// @Summary      Logs the authenticated user out
// @Description  Revokes the refresh token and clears both cookies
// @Tags         auth
// @Accept       json
// @Success      200
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err == nil && cookie.Value != "" {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, r, err)
			return
		}
	}

	h.expireCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) setAccessTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: h.cookies.SameSite,
		MaxAge:   int(h.cookies.AccessTokenTTL.Seconds()),
	})
}

func (h *AuthHandler) setRefreshTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: h.cookies.SameSite,
		MaxAge:   int(h.cookies.RefreshTokenTTL.Seconds()),
	})
}

func (h *AuthHandler) expireCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, MaxAge: -1, Path: "/", Domain: h.cookies.Domain})
	http.SetCookie(w, &http.Cookie{Name: refreshTokenCookie, MaxAge: -1, Path: "/", Domain: h.cookies.Domain})
}
