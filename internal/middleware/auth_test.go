package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/response"
	"github.com/mirachat/mira/pkg/auth"
)

func testStore(t *testing.T) *database.Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database.NewDatabase(db)
}

type authTestEnv struct {
	router *gin.Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	token  string
	userID string
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testStore(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)

	user, err := db.CreateUser(database.CreateUserParams{
		Nickname:    "alice",
		Password:    "hunter22",
		AccountType: models.AccountTypeEmail,
		Account:     "alice@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	token, err := jwtMgr.Generate(user.ID, user.Nickname, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwtMgr, db, rdb), func(c *gin.Context) {
		response.OK(c, Principal(c).UserID)
	})

	return &authTestEnv{router: r, mr: mr, rdb: rdb, token: token, userID: user.ID}
}

func (e *authTestEnv) get(t *testing.T, token string) response.Envelope {
	t.Helper()

	req := httptest.NewRequest("GET", "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env response.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	return env
}

func TestAuthMiddlewarePassesValidToken(t *testing.T) {
	e := newAuthTestEnv(t)

	env := e.get(t, e.token)
	if !env.Success || env.Status != http.StatusOK {
		t.Fatalf("envelope = %+v, want success", env)
	}
	if env.Data != e.userID {
		t.Errorf("principal user id = %v, want %s", env.Data, e.userID)
	}
}

func TestAuthMiddlewareRejectsBlacklistedToken(t *testing.T) {
	e := newAuthTestEnv(t)

	e.rdb.Set(context.Background(), "blacklist:"+e.token, 1, time.Hour)

	env := e.get(t, e.token)
	if env.Success || env.Status != http.StatusUnauthorized {
		t.Errorf("envelope = %+v, want status 401", env)
	}
}

// An unreachable blacklist must not let tokens through unchecked.
func TestAuthMiddlewareFailsClosedWithoutRedis(t *testing.T) {
	e := newAuthTestEnv(t)

	e.mr.Close()

	env := e.get(t, e.token)
	if env.Success || env.Status != http.StatusUnauthorized {
		t.Errorf("envelope = %+v, want status 401", env)
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	e := newAuthTestEnv(t)

	env := e.get(t, "")
	if env.Success || env.Status != http.StatusUnauthorized {
		t.Errorf("envelope = %+v, want status 401", env)
	}
}
