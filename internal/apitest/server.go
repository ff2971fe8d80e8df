// Package apitest runs an in-memory implementation of the todo REST API for
// tests: bcrypt-hashed users, HS256 bearer tokens, per-user todos. It counts
// requests per route and can inject one-shot failures or hold a request open.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

// Route names accepted by Requests, Fail and Hold.
const (
	RouteLogin    = "POST /login"
	RouteRegister = "POST /register"
	RouteList     = "GET /todos"
	RouteCreate   = "POST /todos"
	RouteUpdate   = "PUT /todos/:id"
	RouteDelete   = "DELETE /todos/:id"
)

type failure struct {
	status int
	msg    string
}

type storedTodo struct {
	model.Todo
	owner string
}

type Server struct {
	URL string

	http   *httptest.Server
	secret []byte

	mu       sync.Mutex
	users    map[string][]byte
	todos    []storedTodo
	nextID   int64
	counts   map[string]int
	failures map[string]failure
	holds    map[string]chan struct{}
	entered  map[string]chan struct{}
}

func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		secret:   []byte("apitest-secret"),
		users:    map[string][]byte{},
		nextID:   1,
		counts:   map[string]int{},
		failures: map[string]failure{},
		holds:    map[string]chan struct{}{},
		entered:  map[string]chan struct{}{},
	}

	r := gin.New()
	r.Use(s.track)
	r.POST("/login", s.login)
	r.POST("/register", s.register)
	authed := r.Group("/todos", s.requireToken)
	authed.GET("", s.listTodos)
	authed.POST("", s.createTodo)
	authed.PUT("/:id", s.updateTodo)
	authed.DELETE("/:id", s.deleteTodo)

	s.http = httptest.NewServer(r)
	s.URL = s.http.URL
	return s
}

func (s *Server) Close() { s.http.Close() }

// AddUser registers a user directly.
func (s *Server) AddUser(username, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = hash
}

// Seed adds todos for username and returns them with their ids.
func (s *Server) Seed(username string, contents ...string) []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Todo, 0, len(contents))
	for _, c := range contents {
		t := s.insert(username, c)
		out = append(out, t)
	}
	return out
}

// Todos returns the server-side list of username.
func (s *Server) Todos(username string) []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listFor(username)
}

// Token issues a valid bearer token for username.
func (s *Server) Token(username string) string {
	tok, err := s.issue(username, time.Hour)
	if err != nil {
		panic(err)
	}
	return tok
}

// ExpiredToken issues a token that is already expired.
func (s *Server) ExpiredToken(username string) string {
	tok, err := s.issue(username, -time.Hour)
	if err != nil {
		panic(err)
	}
	return tok
}

// Requests returns how many requests reached route.
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[route]
}

// Total returns the number of requests served on any route.
func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return n
}

// Fail makes the next request on route answer status with {"msg": msg}.
func (s *Server) Fail(route string, status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, msg: msg}
}

// Hold blocks the next request on route until release is called. entered is
// closed once that request has arrived.
func (s *Server) Hold(route string) (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{})
	s.holds[route] = gate
	s.entered[route] = in
	var once sync.Once
	return in, func() { once.Do(func() { close(gate) }) }
}

func (s *Server) track(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()

	s.mu.Lock()
	s.counts[route]++
	f, failing := s.failures[route]
	delete(s.failures, route)
	gate, held := s.holds[route]
	in := s.entered[route]
	delete(s.holds, route)
	delete(s.entered, route)
	s.mu.Unlock()

	if held {
		close(in)
		<-gate
	}
	if failing {
		c.AbortWithStatusJSON(f.status, gin.H{"msg": f.msg})
		return
	}
	c.Next()
}

func (s *Server) issue(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Missing Authorization Header"})
		return
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is invalid or has expired"})
		return
	}
	c.Set("username", claims.Subject)
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&body)

	s.mu.Lock()
	hash, ok := s.users[body.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(body.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Bad username or password"})
		return
	}
	tok, err := s.issue(body.Username, time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok})
}

func (s *Server) register(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&body)

	switch {
	case body.Username == "" && body.Password == "":
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Missing username and password"})
		return
	case body.Username == "":
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Missing username"})
		return
	case body.Password == "":
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Missing password"})
		return
	}

	s.mu.Lock()
	_, exists := s.users[body.Username]
	s.mu.Unlock()
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Username already exists"})
		return
	}
	s.AddUser(body.Username, body.Password)
	c.JSON(http.StatusCreated, gin.H{"msg": "Registration successful"})
}

func (s *Server) listTodos(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.listFor(c.GetString("username")))
}

func (s *Server) createTodo(c *gin.Context) {
	var body struct {
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "Content is required"})
		return
	}
	s.mu.Lock()
	t := s.insert(c.GetString("username"), *body.Content)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTodo(c *gin.Context) {
	var body struct {
		Content *string `json:"content"`
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(c)
	if !ok {
		return
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "Content is required"})
		return
	}
	s.todos[i].Content = *body.Content
	c.JSON(http.StatusOK, s.todos[i].Todo)
}

func (s *Server) deleteTodo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(c)
	if !ok {
		return
	}
	t := s.todos[i].Todo
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	c.JSON(http.StatusOK, t)
}

// find resolves :id for the calling user; it writes the 404 itself. Caller holds mu.
func (s *Server) find(c *gin.Context) (int, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err == nil {
		owner := c.GetString("username")
		for i, t := range s.todos {
			if t.ID == id && t.owner == owner {
				return i, true
			}
		}
	}
	c.String(http.StatusNotFound, fmt.Sprintf("todo %s not found", c.Param("id")))
	return 0, false
}

// Caller holds mu.
func (s *Server) insert(owner, content string) model.Todo {
	t := model.Todo{ID: s.nextID, Content: content}
	s.nextID++
	s.todos = append(s.todos, storedTodo{Todo: t, owner: owner})
	return t
}

// Caller holds mu.
func (s *Server) listFor(owner string) []model.Todo {
	out := []model.Todo{}
	for _, t := range s.todos {
		if t.owner == owner {
			out = append(out, t.Todo)
		}
	}
	return out
}
