package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lokapasar/lokapasar-backend/api/controllers"
	"github.com/lokapasar/lokapasar-backend/api/middleware"
	"github.com/lokapasar/lokapasar-backend/internal/auth"
	cartsvc "github.com/lokapasar/lokapasar-backend/internal/cart"
	categorysvc "github.com/lokapasar/lokapasar-backend/internal/categories"
	checkoutsvc "github.com/lokapasar/lokapasar-backend/internal/checkout"
	couponsvc "github.com/lokapasar/lokapasar-backend/internal/coupons"
	ledgersvc "github.com/lokapasar/lokapasar-backend/internal/ledger"
	notificationsvc "github.com/lokapasar/lokapasar-backend/internal/notifications"
	ordersvc "github.com/lokapasar/lokapasar-backend/internal/orders"
	orgsvc "github.com/lokapasar/lokapasar-backend/internal/organizations"
	productsvc "github.com/lokapasar/lokapasar-backend/internal/products"
	settingsvc "github.com/lokapasar/lokapasar-backend/internal/settings"
	shippingsvc "github.com/lokapasar/lokapasar-backend/internal/shipping"
	usersvc "github.com/lokapasar/lokapasar-backend/internal/users"
	withdrawalsvc "github.com/lokapasar/lokapasar-backend/internal/withdrawals"
	"github.com/lokapasar/lokapasar-backend/pkg/auth/session"
	"github.com/lokapasar/lokapasar-backend/pkg/config"
	"github.com/lokapasar/lokapasar-backend/pkg/db"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
	"github.com/lokapasar/lokapasar-backend/pkg/redis"
)

// Services bundles every domain service the router mounts.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.AdminRegisterService
	Users         usersvc.Service
	Organizations orgsvc.Service
	Products      productsvc.Service
	Categories    categorysvc.Service
	Cart          cartsvc.Service
	Coupons       couponsvc.Service
	Shipping      shippingsvc.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
	Withdrawals   withdrawalsvc.Service
	Ledger        ledgersvc.Service
	Settings      settingsvc.Service
	Notifications notificationsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.ContactValidate(logg))
	})

	// Public marketplace browse surface.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Use(middleware.Maintenance(svcs.Settings, string(enums.MemberRoleAdmin), logg))
		r.Get("/products", controllers.CatalogListProducts(svcs.Products, logg))
		r.Get("/products/{productId}", controllers.CatalogProductDetail(svcs.Products, logg))
		r.Get("/categories", controllers.ListCategories(svcs.Categories, logg))
		r.Get("/categories/{slug}", controllers.CategoryBySlug(svcs.Categories, logg))
		r.Get("/shops/{slug}", controllers.PublicStorefront(svcs.Organizations, logg))
		r.Get("/coupons", controllers.CouponByCode(svcs.Coupons, logg))
	})

	// Payment gateway callbacks authenticate via payload signature, not JWT.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/midtrans", controllers.MidtransWebhook(svcs.Orders, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(svcs.AdminRegister, svcs.Auth, logg))
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Maintenance(svcs.Settings, string(enums.MemberRoleAdmin), logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/me", func(r chi.Router) {
			r.Get("/", controllers.Profile(svcs.Users, logg))
			r.Patch("/", controllers.UpdateProfile(svcs.Users, logg))
			r.Post("/password", controllers.ChangePassword(svcs.Users, logg))
			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.ListAddresses(svcs.Users, logg))
				r.Post("/", controllers.AddAddress(svcs.Users, logg))
				r.Put("/{addressId}", controllers.UpdateAddress(svcs.Users, logg))
				r.Delete("/{addressId}", controllers.DeleteAddress(svcs.Users, logg))
			})
		})

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Post("/v1/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.BuyerListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.BuyerOrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.BuyerCancelOrder(svcs.Orders, logg))
			r.Post("/{orderId}/complete", controllers.BuyerCompleteOrder(svcs.Orders, logg))
		})

		r.Route("/v1/shipping", func(r chi.Router) {
			r.Post("/rates", controllers.ShippingRates(svcs.Shipping, logg))
			r.Get("/destinations", controllers.ShippingDestinations(svcs.Shipping, logg))
		})

		r.Post("/v1/organizations", controllers.RegisterOrganization(svcs.Organizations, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/v1/merchant", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.MemberRoleMerchant), logg))
			r.Use(middleware.RequireOrg(logg))

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", controllers.MerchantProfile(svcs.Organizations, logg))
				r.Patch("/", controllers.MerchantUpdateProfile(svcs.Organizations, logg))
				r.Put("/bank-account", controllers.MerchantUpdateBankAccount(svcs.Organizations, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.MerchantListProducts(svcs.Products, logg))
				r.Post("/", controllers.MerchantCreateProduct(svcs.Products, logg))
				r.Get("/{productId}", controllers.MerchantProductDetail(svcs.Products, logg))
				r.Patch("/{productId}", controllers.MerchantUpdateProduct(svcs.Products, logg))
				r.Delete("/{productId}", controllers.MerchantDeleteProduct(svcs.Products, logg))
				r.Post("/{productId}/variants", controllers.MerchantAddVariant(svcs.Products, logg))
				r.Patch("/{productId}/variants/{variantId}", controllers.MerchantUpdateVariant(svcs.Products, logg))
				r.Delete("/{productId}/variants/{variantId}", controllers.MerchantRemoveVariant(svcs.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.MerchantListOrders(svcs.Orders, logg))
				r.Get("/export", controllers.MerchantExportOrders(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.MerchantOrderDetail(svcs.Orders, logg))
				r.Post("/{orderId}/pack", controllers.MerchantPackOrder(svcs.Orders, logg))
				r.Post("/{orderId}/ship", controllers.MerchantShipOrder(svcs.Orders, logg))
				r.Post("/{orderId}/complete", controllers.MerchantCompleteOrder(svcs.Orders, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.ListCoupons(svcs.Coupons, logg))
				r.Post("/", controllers.CreateCoupon(svcs.Coupons, logg))
				r.Patch("/{couponId}", controllers.UpdateCoupon(svcs.Coupons, logg))
				r.Delete("/{couponId}", controllers.DeleteCoupon(svcs.Coupons, logg))
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/", controllers.MerchantListWithdrawals(svcs.Withdrawals, logg))
				r.Post("/", controllers.MerchantRequestWithdrawal(svcs.Withdrawals, logg))
				r.Get("/{withdrawalId}", controllers.MerchantWithdrawalDetail(svcs.Withdrawals, logg))
			})

			r.Get("/ledger", controllers.MerchantLedgerStatement(svcs.Ledger, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.MemberRoleAdmin), logg))

			r.Get("/ping", controllers.AdminPing())

			r.Route("/v1/organizations", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrganizations(svcs.Organizations, logg))
				r.Get("/{orgId}", controllers.AdminOrganizationDetail(svcs.Organizations, logg))
				r.Post("/{orgId}/approve", controllers.AdminApproveOrganization(svcs.Organizations, logg))
				r.Post("/{orgId}/reject", controllers.AdminRejectOrganization(svcs.Organizations, logg))
				r.Post("/{orgId}/suspend", controllers.AdminSuspendOrganization(svcs.Organizations, logg))
				r.Post("/{orgId}/reinstate", controllers.AdminReinstateOrganization(svcs.Organizations, logg))
				r.Delete("/{orgId}", controllers.AdminDeleteOrganization(svcs.Organizations, logg))
			})

			r.Route("/v1/products", func(r chi.Router) {
				r.Post("/{productId}/block", controllers.AdminBlockProduct(svcs.Products, logg))
				r.Post("/{productId}/unblock", controllers.AdminUnblockProduct(svcs.Products, logg))
				r.Post("/{productId}/restore", controllers.AdminRestoreProduct(svcs.Products, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(svcs.Products, logg))
			})

			r.Route("/v1/categories", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateCategory(svcs.Categories, logg))
				r.Patch("/{categoryId}", controllers.AdminRenameCategory(svcs.Categories, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(svcs.Categories, logg))
			})

			r.Route("/v1/coupons", func(r chi.Router) {
				r.Get("/", controllers.ListCoupons(svcs.Coupons, logg))
				r.Post("/", controllers.CreateCoupon(svcs.Coupons, logg))
				r.Patch("/{couponId}", controllers.UpdateCoupon(svcs.Coupons, logg))
				r.Delete("/{couponId}", controllers.DeleteCoupon(svcs.Coupons, logg))
			})

			r.Route("/v1/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(svcs.Orders, logg))
				r.Post("/{orderId}/refund", controllers.AdminRefundOrder(svcs.Orders, logg))
			})

			r.Route("/v1/withdrawals", func(r chi.Router) {
				r.Get("/", controllers.AdminListWithdrawals(svcs.Withdrawals, logg))
				r.Post("/{withdrawalId}/approve", controllers.AdminApproveWithdrawal(svcs.Withdrawals, logg))
				r.Post("/{withdrawalId}/reject", controllers.AdminRejectWithdrawal(svcs.Withdrawals, logg))
			})

			r.Route("/v1/settings", func(r chi.Router) {
				r.Get("/", controllers.AdminGetSettings(svcs.Settings, logg))
				r.Put("/", controllers.AdminUpdateSettings(svcs.Settings, logg))
			})
		})
	})

	return r
}
