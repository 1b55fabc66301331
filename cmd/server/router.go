package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/handlers"
	"github.com/mirachat/mira/internal/middleware"
	ws "github.com/mirachat/mira/internal/websocket"
	"github.com/mirachat/mira/pkg/auth"
)

func APIEndpoints(r *gin.Engine, db *database.Database, rdb *redis.Client, jwtMgr *auth.JWTManager, hub *ws.Hub) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	authH := handlers.NewAuthHandler(db, jwtMgr, rdb)
	authCodeH := handlers.NewAuthCodeHandler(db)
	userH := handlers.NewUserHandler(db)
	groupH := handlers.NewGroupHandler(db)
	roleH := handlers.NewRoleHandler(db)
	messageH := handlers.NewMessageHandler(db, hub)
	wsH := handlers.NewWebSocketHandler(hub, db, jwtMgr, rdb, handlers.NewWSOps(db, messageH))

	authed := middleware.AuthMiddleware(jwtMgr, db, rdb)
	admin := middleware.RequireAdmin()

	api := r.Group("/api")
	{
		// public
		api.POST("/user/signin", authH.Signin)
		api.POST("/auth-code/new",
			middleware.RateLimiter(rdb, "auth-code", 5, time.Minute),
			authCodeH.Create)
		api.GET("/user/:id", userH.GetByID)
		api.GET("/group/hot", groupH.Hot)

		user := api.Group("/user", authed)
		{
			user.POST("/new", admin, userH.Create)
			user.POST("/search", userH.Search)
			user.GET("/myself", userH.Myself)
			user.GET("/hot", userH.Hot)
			user.GET("/email/:email", userH.GetByEmail)
			user.GET("/phone/:phone", userH.GetByPhone)
			user.PUT("/:id", userH.Update)
			user.DELETE("/:id", userH.Delete)
		}
		api.POST("/user/logout", authed, authH.Logout)

		group := api.Group("/group", authed)
		{
			group.POST("/new", groupH.Create)
			group.POST("/search", groupH.Search)
			group.GET("/:id", groupH.GetByID)
			group.PUT("/:id", groupH.Update)
			group.DELETE("/:id", groupH.Delete)
			group.POST("/:id/join", groupH.Join)
			group.POST("/:id/leave", groupH.Leave)
		}

		role := api.Group("/role", authed, admin)
		{
			role.POST("/new", roleH.Create)
			role.POST("/grant", roleH.Grant)
		}

		message := api.Group("/message", authed)
		{
			message.POST("/new", messageH.Create)
			message.POST("/broadcast", messageH.Broadcast)
			message.POST("/search", messageH.Search)
			message.POST("/list-between", messageH.ListBetween)
			message.GET("/chat-list/:userId", messageH.ChatList)
			message.DELETE("/:id", messageH.Delete)
		}
	}

	// token travels in the query string, auth happens after the upgrade
	r.GET("/ws", wsH.Handle)
}
