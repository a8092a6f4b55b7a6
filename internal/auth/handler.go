package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Handler struct {
	PasswordHash []byte
	Tokens       TokenService
}

func NewHandler(passwordHash string, tokens TokenService) *Handler {
	return &Handler{PasswordHash: []byte(passwordHash), Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
	rg.GET("/me", AuthMiddleware(h.Tokens), h.me)
}

// Login checks the shared household password and issues a token for member.
func (h *Handler) Login(member, password string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(h.PasswordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return h.Tokens.Sign(member)
}

type loginReq struct {
	Member   string `json:"member"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	member := strings.TrimSpace(req.Member)
	if member == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "member and password required"})
		return
	}

	token, exp, err := h.Login(member, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"member":     member,
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": claims.Member})
}
