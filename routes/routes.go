package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"makerchecker-backend/controllers"
	"makerchecker-backend/database"
	"makerchecker-backend/makerchecker"
	"makerchecker-backend/middlewares"
	"makerchecker-backend/models"
)

// Dependencies are the services the HTTP layer is built from.
type Dependencies struct {
	DB        *gorm.DB
	Manager   *makerchecker.Manager
	Requests  *database.RequestStore
	Articles  *database.Entity[models.Article]
	Customers *database.Entity[models.Customer]
	Suppliers *database.Entity[models.Supplier]
	JWTSecret string
}

// Register wires all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	api := app.Group("/api")

	auth := controllers.NewAuthController(deps.DB, deps.JWTSecret)
	requests := controllers.NewRequestController(deps.Manager, deps.Requests)
	articles := controllers.NewArticleController(deps.Articles, deps.Manager)
	customers := controllers.NewCustomerController(deps.Customers, deps.Manager)
	suppliers := controllers.NewSupplierController(deps.Suppliers, deps.Manager)

	// Public auth endpoints
	api.Post("/registration", auth.Register)
	api.Post("/login", auth.Login)
	api.Post("/logout", auth.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader(deps.JWTSecret))
	protected.Use(middlewares.Idempotency(deps.DB))

	// Requests
	protected.Post("/requests", requests.Create)
	protected.Get("/requests", requests.Index)
	protected.Get("/requests/:code", requests.Show)
	protected.Post("/requests/:code/approve", requests.Approve)
	protected.Post("/requests/:code/reject", requests.Reject)

	// Subjects: reads are direct, writes become pending requests
	protected.Get("/articles", articles.Index)
	protected.Get("/articles/:id", articles.Show)
	protected.Post("/articles", articles.Create)
	protected.Put("/articles/:id", articles.Update)
	protected.Delete("/articles/:id", articles.Delete)

	protected.Get("/customers", customers.Index)
	protected.Get("/customers/:id", customers.Show)
	protected.Post("/customers", customers.Create)
	protected.Put("/customers/:id", customers.Update)
	protected.Delete("/customers/:id", customers.Delete)

	protected.Get("/suppliers", suppliers.Index)
	protected.Get("/suppliers/:id", suppliers.Show)
	protected.Post("/suppliers", suppliers.Create)
	protected.Put("/suppliers/:id", suppliers.Update)
	protected.Delete("/suppliers/:id", suppliers.Delete)
}
