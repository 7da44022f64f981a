package handlers

import (
	"database/sql"

	"blackjack-table-go/internal/config"
	"blackjack-table-go/internal/services"
	"blackjack-table-go/internal/session"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes wires account endpoints. Register and login are
// public; me/logout sit behind RequireAuth in main.
func RegisterAuthRoutes(public *gin.RouterGroup, private *gin.RouterGroup, db *sql.DB, cfg config.Config) {
	public.POST("/auth/register", RegisterHandler(db, cfg))
	public.POST("/auth/login", LoginHandler(db, cfg))
	private.GET("/auth/me", MeHandler(db))
	private.POST("/auth/logout", LogoutHandler(cfg))
}

// RegisterTableRoutes wires the table lifecycle and round actions. All
// of them require auth; mutating actions additionally require table
// ownership (checked per handler).
func RegisterTableRoutes(rg *gin.RouterGroup, db *sql.DB, store *session.Store) {
	rg.GET("/tables", ListMyTablesHandler(store))
	rg.POST("/tables", CreateTableHandler(db, store))
	rg.GET("/tables/:id", GetTableHandler(store))
	rg.DELETE("/tables/:id", CloseTableHandler(db, store))
	rg.GET("/tables/:id/history", TableHistoryHandler(db))

	rg.POST("/tables/:id/bet", PlaceBetHandler(db, store))
	rg.POST("/tables/:id/hit", HitHandler(db, store))
	rg.POST("/tables/:id/stand", StandHandler(db, store))
	rg.POST("/tables/:id/double", DoubleDownHandler(db, store))
	rg.POST("/tables/:id/next", NextRoundHandler(db, store))

	rg.GET("/leaderboard", LeaderboardHandler(db))
}

// RegisterPaymentRoutes wires the chip purchase endpoints. The webhook
// must stay outside auth middleware: Stripe signs it instead.
func RegisterPaymentRoutes(public *gin.RouterGroup, private *gin.RouterGroup, chips *services.ChipService) {
	h := NewPaymentHandler(chips)
	private.GET("/payments/packs", h.GetPacks)
	private.POST("/payments/purchase", h.CreatePurchase)
	public.POST("/payments/webhook", h.HandleWebhook)
}
