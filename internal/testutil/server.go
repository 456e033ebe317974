// Package testutil provides an in-process stand-in for the remote
// compound-interest service, used by repository and controller tests.
package testutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/adiprasetyo/kalkulo/internal/calc"
	"github.com/adiprasetyo/kalkulo/internal/models"
)

// Server is a mock of the REST surface the client consumes. State is held in
// memory; every request (including rejected ones) increments the counter so
// tests can assert that no call was made.
type Server struct {
	URL string

	srv       *httptest.Server
	jwtSecret []byte
	requests  int64

	mu          sync.Mutex
	users       map[string]*userRecord
	histories   map[int]*models.History
	types       []models.InvestmentType
	nextUserID  int
	nextHistID  int
	forcedPath  string
	forcedCode  int
	slowPath    string
	slowBy      time.Duration
}

type userRecord struct {
	user         models.User
	passwordHash string
}

func strPtr(s string) *string { return &s }

// NewServer starts the mock service with the default investment types.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		jwtSecret: []byte("test-secret-key"),
		users:     make(map[string]*userRecord),
		histories: make(map[int]*models.History),
		types: []models.InvestmentType{
			{ID: 1, Name: "Deposito", Description: strPtr("Deposito berjangka")},
			{ID: 2, Name: "Saham", Description: strPtr("Investasi saham")},
			{ID: 3, Name: "Obligasi", Description: nil},
		},
		nextUserID: 1,
		nextHistID: 1,
	}

	router := gin.New()
	router.Use(s.countRequests())
	router.Use(s.maybeFail())

	router.POST("/api/auth/register", s.handleRegister)
	router.POST("/api/auth/login", s.handleLogin)

	authed := router.Group("/api", s.authMiddleware())
	authed.POST("/calculate", s.handleCalculate)
	authed.GET("/history", s.handleListHistory)
	authed.POST("/history", s.handleSaveHistory)
	authed.PUT("/history/:id", s.handleUpdateHistory)
	authed.DELETE("/history/:id", s.handleDeleteHistory)
	authed.GET("/investment-types", s.handleListTypes)

	s.srv = httptest.NewServer(router)
	s.URL = s.srv.URL
	return s
}

// Close shuts the mock service down.
func (s *Server) Close() {
	s.srv.Close()
}

// RequestCount reports how many HTTP requests reached the service.
func (s *Server) RequestCount() int {
	return int(atomic.LoadInt64(&s.requests))
}

// Fail forces every request matching method and path prefix to the given
// status until ClearFail is called.
func (s *Server) Fail(method, pathPrefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcedPath = method + " " + pathPrefix
	s.forcedCode = status
}

// ClearFail removes a forced failure.
func (s *Server) ClearFail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcedPath = ""
	s.forcedCode = 0
}

// Slow delays every request matching method and path prefix by d before it is
// handled, so tests can hold one call in flight while another completes.
func (s *Server) Slow(method, pathPrefix string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slowPath = method + " " + pathPrefix
	s.slowBy = d
}

// SeedUser registers an account directly, bypassing the HTTP surface.
func (s *Server) SeedUser(username, password, fullName string) models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	s.mu.Lock()
	defer s.mu.Unlock()
	user := models.User{ID: s.nextUserID, Username: username, FullName: fullName}
	s.nextUserID++
	s.users[username] = &userRecord{user: user, passwordHash: string(hash)}
	return user
}

// TokenFor issues a valid token for a seeded user.
func (s *Server) TokenFor(username string) string {
	token, _ := s.issueToken(username)
	return token
}

// Histories returns a copy of the stored records.
func (s *Server) Histories() []models.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.History, 0, len(s.histories))
	for _, h := range s.histories {
		out = append(out, *h)
	}
	return out
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		atomic.AddInt64(&s.requests, 1)
		c.Next()
	}
}

func (s *Server) maybeFail() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		forced := s.forcedPath
		code := s.forcedCode
		slow := s.slowPath
		slowBy := s.slowBy
		s.mu.Unlock()

		if slow != "" && strings.HasPrefix(c.Request.Method+" "+c.Request.URL.Path, slow) {
			time.Sleep(slowBy)
		}

		if forced != "" && strings.HasPrefix(c.Request.Method+" "+c.Request.URL.Path, forced) {
			c.String(code, "forced failure")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		username, _ := claims["sub"].(string)
		s.mu.Lock()
		_, known := s.users[username]
		s.mu.Unlock()
		if !known {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			c.Abort()
			return
		}

		c.Set("username", username)
		c.Next()
	}
}

func (s *Server) issueToken(username string) (string, error) {
	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *Server) handleRegister(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	_, exists := s.users[req.Username]
	s.mu.Unlock()
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	user := s.SeedUser(req.Username, req.Password, req.FullName)
	c.JSON(http.StatusCreated, models.AuthResponse{Message: "User registered successfully", User: &user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	rec, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(rec.passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := s.issueToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{Message: "ok", Token: token, User: &rec.user})
}

func (s *Server) handleCalculate(c *gin.Context) {
	var req models.CalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	data, err := calc.CompoundInterest(req.Principal, req.Rate, req.Years)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.CalculationResponse{Success: true, Data: data})
}

func (s *Server) handleListHistory(c *gin.Context) {
	username := c.GetString("username")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.History, 0)
	for _, h := range s.histories {
		if h.Username == username {
			out = append(out, *h)
		}
	}

	c.JSON(http.StatusOK, models.HistoryResponse{Success: true, Count: len(out), Data: out})
}

func (s *Server) handleSaveHistory(c *gin.Context) {
	username := c.GetString("username")

	var req models.SaveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	typeName, ok := s.typeNameLocked(req.TypeID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown investment type"})
		return
	}

	rec := s.users[username]
	h := &models.History{
		ID:           s.nextHistID,
		Note:         req.Note,
		Principal:    req.Principal,
		Rate:         req.Rate,
		Years:        req.Years,
		FinalBalance: req.FinalBalance,
		SavedAt:      time.Now().UTC().Format(time.RFC3339),
		TypeID:       req.TypeID,
		TypeName:     typeName,
		Username:     username,
		FullName:     rec.user.FullName,
	}
	s.nextHistID++
	s.histories[h.ID] = h

	c.JSON(http.StatusCreated, models.MessageResponse{Message: "History saved"})
}

func (s *Server) handleUpdateHistory(c *gin.Context) {
	username := c.GetString("username")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	var req models.SaveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[id]
	if !ok || h.Username != username {
		c.JSON(http.StatusNotFound, gin.H{"error": "History not found"})
		return
	}

	typeName, ok := s.typeNameLocked(req.TypeID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown investment type"})
		return
	}

	h.Note = req.Note
	h.Principal = req.Principal
	h.Rate = req.Rate
	h.Years = req.Years
	h.FinalBalance = req.FinalBalance
	h.TypeID = req.TypeID
	h.TypeName = typeName

	c.JSON(http.StatusOK, models.MessageResponse{Message: "History updated"})
}

func (s *Server) handleDeleteHistory(c *gin.Context) {
	username := c.GetString("username")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[id]
	if !ok || h.Username != username {
		c.JSON(http.StatusNotFound, gin.H{"error": "History not found"})
		return
	}

	delete(s.histories, id)
	c.JSON(http.StatusOK, models.MessageResponse{Message: "History deleted"})
}

func (s *Server) handleListTypes(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, models.InvestmentTypesResponse{Success: true, Count: len(s.types), Data: s.types})
}

func (s *Server) typeNameLocked(id int) (string, bool) {
	for _, t := range s.types {
		if t.ID == id {
			return t.Name, true
		}
	}
	return "", false
}
