package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/aiinfocenter/internal/app/controllers"
	"github.com/yigit/aiinfocenter/internal/pkg/websocket"
)

// Controllers groups the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Auth         *controllers.AuthController
	Conversation *controllers.ConversationController
	Request      *controllers.RequestController
	Health       *controllers.HealthController
	LiveChat     *websocket.Handler
}

// SetupRouter configures all application routes. Access control is applied
// globally by the access policy middleware, so groups here only shape paths.
func SetupRouter(router *gin.Engine, c Controllers) {
	router.GET("/health", c.Health.Health)

	// Inbound AI relay used by the chat widget
	router.POST("/message", c.Conversation.Relay)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
	}

	api.GET("/me", c.Auth.Me)

	student := api.Group("/student")
	{
		conversations := student.Group("/conversations")
		{
			conversations.GET("", c.Conversation.ListConversations)
			conversations.POST("", c.Conversation.CreateConversation)
			conversations.DELETE("/:id", c.Conversation.DeleteConversation)
			conversations.GET("/:id/messages", c.Conversation.ListMessages)
			conversations.POST("/:id/messages", c.Conversation.SendMessage)
			conversations.GET("/:id/ws", c.LiveChat.HandleConnection)
		}

		requests := student.Group("/requests")
		{
			requests.GET("", c.Request.ListMyRequests)
			requests.POST("", c.Request.CreateRequest)
			requests.POST("/:id/attachment", c.Request.UploadAttachment)
			requests.GET("/:id/attachment", c.Request.DownloadAttachment)
		}
	}

	admin := api.Group("/admin")
	{
		admin.GET("/requests", c.Request.ListAllRequests)
		admin.PUT("/requests/:id/respond", c.Request.RespondToRequest)
		admin.GET("/requests/:id/attachment", c.Request.DownloadAttachment)
		admin.GET("/students/:id/requests", c.Request.ListStudentRequests)
	}
}
