// Package stub is an in-memory implementation of the platform API used for
// offline development and integration tests. It mirrors the wire contract
// the client assumes, nothing more.
package stub

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campus/internal/models"
	"campus/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	feedPageSize = 3
	tokenTTL     = 24 * time.Hour
)

// Options configure the stub server.
type Options struct {
	// DSN defaults to a private in-memory SQLite database.
	DSN       string
	JWTSecret string
	Logger    *observability.Logger
}

// Server hosts the stub API.
type Server struct {
	db     *gorm.DB
	secret []byte
	app    *fiber.App
	logger *observability.Logger
}

// New opens the database, migrates the schema and mounts the routes.
func New(opts Options) (*Server, error) {
	dsn := opts.DSN
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	secret := opts.JWTSecret
	if secret == "" {
		secret = "stub-secret"
	}
	log := opts.Logger
	if log == nil {
		log = observability.GlobalLogger
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, err
	}

	s := &Server{
		db:     db,
		secret: []byte(secret),
		logger: log.Component("stub"),
	}
	s.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", s.login)
	auth.Post("/register", s.register)
	auth.Post("/password-reset", s.passwordReset)

	posts := api.Group("/posts")
	posts.Get("/", s.listPosts)
	posts.Get("/search", s.searchPosts)
	posts.Get("/tags", s.listTags)
	posts.Post("/", s.authRequired, s.createPost)
	posts.Post("/:id/likes", s.authRequired, s.likePost)
	posts.Post("/:id/comments", s.authRequired, s.addComment)

	users := api.Group("/users")
	users.Get("/me", s.authRequired, s.currentUser)
	users.Put("/me", s.authRequired, s.updateProfile)
	users.Put("/me/password", s.authRequired, s.changePassword)
	users.Get("/:id", s.userProfile)
	users.Get("/:id/posts", s.userPosts)

	channels := api.Group("/channels", s.authRequired)
	channels.Get("/", s.listChannels)
	channels.Get("/invitations", s.pendingInvitations)
	channels.Post("/invitations/:id", s.respondInvitation)
	channels.Post("/posts/:postId/comments", s.commentChannelPost)
	channels.Post("/posts/:postId/like", s.likeChannelPost)
	channels.Delete("/posts/:postId", s.deleteChannelPost)
	channels.Get("/:id", s.getChannel)
	channels.Get("/:id/posts", s.listChannelPosts)
	channels.Post("/:id/posts", s.createChannelPost)
}

// App exposes the fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves the stub on addr.
func (s *Server) Listen(addr string) error {
	s.logger.Info("stub API listening", "addr", addr)
	return s.app.Listen(addr)
}

// Client returns an http.Client whose transport dispatches straight into
// the fiber app, letting the real API client run against the stub without
// a network listener.
func (s *Server) Client() *http.Client {
	return &http.Client{Transport: appTransport{app: s.app}}
}

type appTransport struct {
	app *fiber.App
}

func (t appTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.app.Test(req, -1)
}

// mintToken issues an HS256 token with the user ID as subject.
func (s *Server) mintToken(userID uint) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(int(userID)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// authRequired enforces a valid bearer token and stores the user ID in
// locals under "userID".
func (s *Server) authRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization header required"))
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid authorization header format"))
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token claims"))
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token structure - missing subject"))
	}
	userID, err := strconv.Atoi(sub)
	if err != nil || userID <= 0 {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token subject"))
	}

	c.Locals("userID", uint(userID))
	return c.Next()
}

func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// parseID extracts a positive integer route parameter.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + param)
	}
	return uint(id), nil
}
