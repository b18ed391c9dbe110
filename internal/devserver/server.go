// Package devserver serves the course service HTTP contract from a YAML
// fixture, for local development and end-to-end tests of the client.
package devserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/logger"
	"github.com/abhisek/learnpath/internal/recommend"
)

// Config holds server settings. An empty Secret gets a random one, so
// tokens do not survive a restart.
type Config struct {
	Secret       string
	TokenTTL     time.Duration
	AllowOrigins []string
}

type lessonEntry struct {
	lesson   course.Lesson
	courseID course.ID
}

// Server is an in-memory course service.
type Server struct {
	cfg    Config
	secret []byte
	log    *logger.Logger
	now    func() time.Time
	engine *gin.Engine

	courses []course.Course
	graphs  map[course.ID]*course.Graph
	lessons map[course.ID]lessonEntry

	mu       sync.Mutex
	byEmail  map[string]*account
	byID     map[string]*account
	progress map[string]map[course.ID]course.ProgressRecord // account id -> lesson id
}

// New builds a server for fx. Fixture passwords are hashed here.
func New(fx *Fixture, cfg Config, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg.TokenTTL = tokenTTL(cfg.TokenTTL)

	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
	}

	s := &Server{
		cfg:      cfg,
		secret:   secret,
		log:      log,
		now:      time.Now,
		courses:  fx.Catalog(),
		graphs:   make(map[course.ID]*course.Graph),
		lessons:  make(map[course.ID]lessonEntry),
		byEmail:  make(map[string]*account),
		byID:     make(map[string]*account),
		progress: make(map[string]map[course.ID]course.ProgressRecord),
	}

	for _, c := range s.courses {
		g := course.NewGraph(c)
		s.graphs[c.ID] = g
		for _, l := range g.Lessons() {
			lesson := l.Lesson
			lesson.ModuleID = l.ModuleID
			s.lessons[l.ID] = lessonEntry{lesson: lesson, courseID: c.ID}
		}
	}

	for _, u := range fx.Users {
		if _, err := s.addAccount(u.Email, u.Password, u.FullName, u.Role); err != nil {
			return nil, err
		}
	}

	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("dev server listening", "addr", addr, "courses", len(s.courses))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := s.cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(s.requestLogger)

	auth := r.Group("/auth")
	{
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
		auth.GET("/me", s.authMiddleware, s.me)
	}

	r.GET("/courses", s.listCourses)
	r.GET("/courses/:course_id", s.getCourse)
	r.GET("/lessons/:lesson_id", s.getLesson)

	r.GET("/recommendation/next", s.authMiddleware, s.nextRecommendation)

	progress := r.Group("/progress", s.authMiddleware)
	{
		progress.POST("/complete", s.markCompleted)
		progress.GET("/me", s.myProgress)
	}

	r.NoRoute(func(c *gin.Context) {
		abortDetail(c, http.StatusNotFound, "Not Found")
	})
	return r
}

// requestLogger echoes the caller's request id and logs each request.
func (s *Server) requestLogger(c *gin.Context) {
	start := s.now()
	reqID := c.GetHeader("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	c.Header("X-Request-ID", reqID)

	c.Next()

	s.log.Debug("request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"latency_ms", s.now().Sub(start).Milliseconds(),
		"request_id", reqID,
	)
}

// addAccount registers a new account. It returns nil when the email is
// taken.
func (s *Server) addAccount(email, password, fullName, role string) (*account, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = "student"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return nil, nil
	}
	a := &account{
		ID:       strconv.Itoa(len(s.byID) + 1),
		Email:    email,
		FullName: fullName,
		Role:     role,
		hash:     hash,
	}
	s.byEmail[email] = a
	s.byID[a.ID] = a
	return a, nil
}

func (s *Server) register(c *gin.Context) {
	email, password := c.Query("email"), c.Query("password")
	if email == "" {
		missingParam(c, "email")
		return
	}
	if password == "" {
		missingParam(c, "password")
		return
	}

	a, err := s.addAccount(email, password, c.Query("full_name"), "student")
	if err != nil {
		s.log.Error("register failed", "error", err)
		abortDetail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if a == nil {
		abortDetail(c, http.StatusBadRequest, "Email already registered")
		return
	}
	c.JSON(http.StatusOK, a.identity())
}

func (s *Server) login(c *gin.Context) {
	email, password := c.Query("email"), c.Query("password")
	if email == "" {
		missingParam(c, "email")
		return
	}
	if password == "" {
		missingParam(c, "password")
		return
	}

	s.mu.Lock()
	a, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok || !checkPassword(a.hash, password) {
		abortDetail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.issueToken(a)
	if err != nil {
		s.log.Error("issue token failed", "error", err)
		abortDetail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentAccount(c).identity())
}

func (s *Server) listCourses(c *gin.Context) {
	out := make([]course.Summary, 0, len(s.courses))
	for _, crs := range s.courses {
		out = append(out, course.Summary{ID: crs.ID, Title: crs.Title, Description: crs.Description})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getCourse(c *gin.Context) {
	id := course.ID(c.Param("course_id"))
	g, ok := s.graphs[id]
	if !ok {
		abortDetail(c, http.StatusNotFound, "Course not found")
		return
	}

	// Lesson bodies are only served by /lessons/{id}.
	crs := g.Course()
	modules := make([]course.Module, len(crs.Modules))
	for i, m := range crs.Modules {
		m.Lessons = slices.Clone(m.Lessons)
		for j := range m.Lessons {
			m.Lessons[j].Content = ""
		}
		modules[i] = m
	}
	crs.Modules = modules
	c.JSON(http.StatusOK, crs)
}

func (s *Server) getLesson(c *gin.Context) {
	entry, ok := s.lessons[course.ID(c.Param("lesson_id"))]
	if !ok {
		abortDetail(c, http.StatusNotFound, "Lesson not found")
		return
	}
	c.JSON(http.StatusOK, entry.lesson)
}

func (s *Server) completedSet(accountID string) recommend.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := make(recommend.Set, len(s.progress[accountID]))
	for id, rec := range s.progress[accountID] {
		if rec.Completed {
			done[id] = true
		}
	}
	return done
}

func (s *Server) nextRecommendation(c *gin.Context) {
	courseID := c.Query("course_id")
	if courseID == "" {
		missingParam(c, "course_id")
		return
	}
	g, ok := s.graphs[course.ID(courseID)]
	if !ok {
		abortDetail(c, http.StatusNotFound, "Course not found")
		return
	}

	done := s.completedSet(currentAccount(c).ID)
	mode := c.DefaultQuery("mode", recommend.ModeBaseline)

	var (
		rec   course.Recommendation
		found bool
	)
	switch mode {
	case recommend.ModeBaseline:
		rec, found = recommend.NextUncompleted(g.Lessons(), done)
	case recommend.ModeAdaptive:
		rec, found = easiestIncomplete(g.Lessons(), done)
	default:
		abortDetail(c, http.StatusUnprocessableEntity, "mode must be baseline or adaptive")
		return
	}

	if !found {
		c.JSON(http.StatusOK, gin.H{"lesson_id": nil, "reason": "all lessons completed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// easiestIncomplete picks the incomplete lesson with the lowest difficulty,
// breaking ties by course order. The score rises as difficulty falls.
func easiestIncomplete(flat []course.FlatLesson, done recommend.Set) (course.Recommendation, bool) {
	best := -1
	for i, l := range flat {
		if done[l.ID] {
			continue
		}
		if best < 0 || l.Difficulty < flat[best].Difficulty {
			best = i
		}
	}
	if best < 0 {
		return course.Recommendation{}, false
	}

	l := flat[best]
	score := 1 / float64(1+max(l.Difficulty, 0))
	return course.Recommendation{
		LessonID:   l.ID,
		Title:      l.Title,
		LessonType: l.Type,
		Difficulty: l.Difficulty,
		Score:      &score,
		Reason:     "lowest difficulty not yet completed",
	}, true
}

func (s *Server) markCompleted(c *gin.Context) {
	lessonID := c.Query("lesson_id")
	if lessonID == "" {
		missingParam(c, "lesson_id")
		return
	}
	entry, ok := s.lessons[course.ID(lessonID)]
	if !ok {
		abortDetail(c, http.StatusNotFound, "Lesson not found")
		return
	}

	var score *float64
	if raw := c.Query("score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			abortDetail(c, http.StatusUnprocessableEntity, "score must be a number between 0 and 1")
			return
		}
		score = &v
	}

	a := currentAccount(c)
	s.mu.Lock()
	records, ok := s.progress[a.ID]
	if !ok {
		records = make(map[course.ID]course.ProgressRecord)
		s.progress[a.ID] = records
	}
	rec := records[entry.lesson.ID]
	rec.LessonID = entry.lesson.ID
	rec.CourseID = entry.courseID
	rec.Completed = true
	if score != nil {
		rec.Score = score
	}
	rec.UpdatedAt = course.Timestamp{Time: s.now().UTC()}
	records[entry.lesson.ID] = rec
	s.mu.Unlock()

	c.JSON(http.StatusOK, rec)
}

func (s *Server) myProgress(c *gin.Context) {
	a := currentAccount(c)

	s.mu.Lock()
	out := make([]course.ProgressRecord, 0, len(s.progress[a.ID]))
	for _, rec := range s.progress[a.ID] {
		out = append(out, rec)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(x, y course.ProgressRecord) int {
		if c := x.UpdatedAt.Compare(y.UpdatedAt.Time); c != 0 {
			return c
		}
		return strings.Compare(string(x.LessonID), string(y.LessonID))
	})
	c.JSON(http.StatusOK, out)
}
