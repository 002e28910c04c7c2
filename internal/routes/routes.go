package routes

import (
	"masterplace_backend/internal/auth"
	"masterplace_backend/internal/handlers"
	"masterplace_backend/internal/middleware"
	"masterplace_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты приложения.
func RegisterRoutes(
	ginRouter *gin.Engine,
	h *handlers.HandlerContainer,
	tokens *auth.TokenManager,
) {
	api := ginRouter.Group("/api/v1")

	// Публичные маршруты
	{
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/tariffs", h.Subscription.ListTariffs)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(tokens))

	// Заказы
	{
		authed.POST("/orders", h.Order.Create)
		authed.GET("/orders", h.Order.ListSearching)
		authed.GET("/orders/my", h.Order.ListMine)
		authed.GET("/orders/assigned", h.Order.ListAssigned)
		authed.GET("/orders/:id", h.Order.Get)
		authed.POST("/orders/:id/cancel", h.Order.Cancel)
		authed.POST("/orders/:id/start", h.Order.StartWork)
		authed.POST("/orders/:id/complete", h.Order.ConfirmCompletion)
		authed.POST("/orders/:id/reject-completion", h.Order.RejectCompletion)
		authed.POST("/orders/:id/reject", h.Order.Reject)
		authed.POST("/orders/:id/archive", h.Order.Archive)
	}

	// Отклики
	{
		authed.POST("/orders/:id/responses", h.Response.Submit)
		authed.GET("/orders/:id/responses", h.Response.ListByOrder)
		authed.POST("/orders/:id/responses/:responseId/select", h.Response.Select)
		authed.GET("/responses/my", h.Response.ListMine)
		authed.POST("/responses/:id/exchange-contacts", h.Response.ExchangeContacts)
		authed.POST("/responses/:id/open-contact", h.Response.OpenContact)
		authed.POST("/responses/:id/order-received", h.Response.MarkOrderReceived)
		authed.POST("/responses/:id/revoke", h.Response.Revoke)
	}

	// Посреднический трек
	mediator := authed.Group("/mediator")
	mediator.Use(middleware.RequireRoles(models.UserRoleMediator, models.UserRoleAdmin))
	{
		mediator.POST("/orders/:id/assign", h.Mediator.Assign)
		mediator.GET("/orders/:id/step", h.Mediator.GetActiveStep)
		mediator.GET("/orders/:id/steps", h.Mediator.ListSteps)
		mediator.POST("/orders/:id/advance", h.Mediator.Advance)
		mediator.POST("/orders/:id/archive", h.Mediator.Archive)
		mediator.POST("/orders/:id/return", h.Mediator.ReturnToPool)
		mediator.POST("/orders/:id/complete", h.Mediator.Complete)
		mediator.POST("/orders/:id/reject", h.Mediator.Reject)
	}

	// Подписка
	{
		authed.GET("/subscription", h.Subscription.GetState)
		authed.POST("/subscription", h.Subscription.Subscribe)
	}

	// Расчёты
	settlement := authed.Group("/settlement")
	{
		settlement.GET("/rewards", h.Settlement.ListMyRewards)
		settlement.GET("/rewards/:id", h.Settlement.GetReward)
		settlement.GET("/cashback", h.Settlement.ListMyCashback)

		admin := settlement.Group("")
		admin.Use(middleware.RequireRoles(models.UserRoleAdmin))
		{
			admin.POST("/top-ups", h.Settlement.RegisterTopUp)
			admin.POST("/rewards/:id/approve", h.Settlement.ApproveReward)
			admin.POST("/rewards/:id/pay", h.Settlement.PayReward)
			admin.POST("/rewards/:id/cancel", h.Settlement.CancelReward)
			admin.POST("/cashback/:id/process", h.Settlement.ProcessCashback)
			admin.POST("/cashback/:id/cancel", h.Settlement.CancelCashback)
		}
	}

	// Отзывы
	{
		authed.POST("/reviews", h.Review.Create)
		authed.GET("/reviews/:id", h.Review.Get)
		authed.DELETE("/reviews/:id", h.Review.Delete)
		authed.GET("/reviews/:id/replies", h.Review.ListReplies)
		authed.POST("/reviews/executor/:id/replies", h.Review.ReplyExecutor)
		authed.POST("/reviews/customer/:id/replies", h.Review.ReplyCustomer)
		authed.GET("/users/:id/reviews", h.Review.ListBySubject)
	}
}
