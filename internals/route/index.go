// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"kursusku_backend/internals/configs"
	certController "kursusku_backend/internals/features/certificates/controller"
	certRepo "kursusku_backend/internals/features/certificates/repository"
	certRoute "kursusku_backend/internals/features/certificates/route"
	certSvc "kursusku_backend/internals/features/certificates/service"
	courseController "kursusku_backend/internals/features/courses/course/controller"
	courseRepo "kursusku_backend/internals/features/courses/course/repository"
	courseRoute "kursusku_backend/internals/features/courses/course/route"
	courseSvc "kursusku_backend/internals/features/courses/course/service"
	enrollmentController "kursusku_backend/internals/features/courses/enrollment/controller"
	enrollmentRepo "kursusku_backend/internals/features/courses/enrollment/repository"
	enrollmentRoute "kursusku_backend/internals/features/courses/enrollment/route"
	enrollmentSvc "kursusku_backend/internals/features/courses/enrollment/service"
	paymentController "kursusku_backend/internals/features/finance/payments/controller"
	paymentRepo "kursusku_backend/internals/features/finance/payments/repository"
	paymentRoute "kursusku_backend/internals/features/finance/payments/route"
	paymentSvc "kursusku_backend/internals/features/finance/payments/service"
	authController "kursusku_backend/internals/features/users/auth/controller"
	authRepo "kursusku_backend/internals/features/users/auth/repository"
	authRoute "kursusku_backend/internals/features/users/auth/route"
	authSvc "kursusku_backend/internals/features/users/auth/service"
	oauthController "kursusku_backend/internals/features/users/oauth/controller"
	oauthRepo "kursusku_backend/internals/features/users/oauth/repository"
	oauthRoute "kursusku_backend/internals/features/users/oauth/route"
	oauthSvc "kursusku_backend/internals/features/users/oauth/service"
	userController "kursusku_backend/internals/features/users/user/controller"
	userRepo "kursusku_backend/internals/features/users/user/repository"
	userRoute "kursusku_backend/internals/features/users/user/route"
	userSvc "kursusku_backend/internals/features/users/user/service"
	"kursusku_backend/internals/helpers/cache"
	"kursusku_backend/internals/helpers/mailer"
	"kursusku_backend/internals/helpers/media"
	"kursusku_backend/internals/middlewares"
	authMw "kursusku_backend/internals/middlewares/auth"
)

var startTime time.Time

// Deps: kolaborator eksternal yang dibangun di main (boleh diganti fake di test).
type Deps struct {
	Cache    cache.Cache // nil → tanpa cache
	Mailer   mailer.Mailer
	Gateway  paymentSvc.Gateway
	Uploader media.Uploader
}

type Services struct {
	Auth         *authSvc.AuthService
	OAuth        *oauthSvc.OAuthService
	Users        *userSvc.UserService
	Courses      *courseSvc.CourseService
	Enrollments  *enrollmentSvc.EnrollmentService
	Payments     *paymentSvc.PaymentService
	Certificates *certSvc.CertificateService
}

// BuildServices merangkai semua service + port antar fitur.
func BuildServices(cfg *configs.Config, db *gorm.DB, d Deps) *Services {
	if d.Mailer == nil {
		d.Mailer = mailer.NoopMailer{}
	}

	certs := certSvc.NewCertificateService(certRepo.NewCertificateRepository(db))
	certs.SetMailer(d.Mailer)
	if d.Cache != nil {
		certs.SetCache(d.Cache)
	}

	enrollments := enrollmentSvc.NewEnrollmentService(enrollmentRepo.NewEnrollmentRepository(db), certs, d.Mailer)

	payments := paymentSvc.NewPaymentService(paymentRepo.NewPaymentRepository(db), d.Gateway, cfg.MidtransServerKey)
	payments.SetEnrollmentPort(enrollments)
	// pending_payment → active sekali saat payment pertama kali settled
	payments.AddSettlementHook(enrollments)

	var providers []oauthSvc.Provider
	google := oauthSvc.NewGoogleProvider(oauthSvc.GoogleOptions{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Timeout:      cfg.GatewayTimeout,
	})
	if google.Configured() {
		providers = append(providers, google)
	} else {
		log.Warn().Msg("⚠️ Google OAuth belum dikonfigurasi, /api/auth/oauth/google nonaktif")
	}
	var verifier oauthSvc.IDTokenVerifier
	if cfg.GoogleClientID != "" {
		verifier = oauthSvc.GoogleIDTokenVerifier{ClientID: cfg.GoogleClientID}
	}

	auth := authSvc.NewAuthService(authRepo.NewAuthRepository(db), authSvc.Options{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
	})

	return &Services{
		Auth:         auth,
		Users:        userSvc.NewUserService(userRepo.NewUserRepository(db), auth),
		OAuth:        oauthSvc.NewOAuthService(oauthRepo.NewOAuthRepository(db), verifier, providers...),
		Courses:      courseSvc.NewCourseService(courseRepo.NewCourseRepository(db), d.Uploader),
		Enrollments:  enrollments,
		Payments:     payments,
		Certificates: certs,
	}
}

func SetupRoutes(app *fiber.App, cfg *configs.Config, db *gorm.DB, svc *Services) {
	startTime = time.Now()

	requireAuth := authMw.AuthMiddleware(db, cfg.JWTSecret)
	optionalAuth := authMw.OptionalAuth(db, cfg.JWTSecret)

	authCtl := authController.NewAuthController(svc.Auth, !cfg.IsDevelopment())
	oauthCtl := oauthController.NewOAuthController(svc.OAuth, authCtl, cfg.OAuthSuccessRedirect)
	courseCtl := courseController.NewCourseController(svc.Courses)
	enrollmentCtl := enrollmentController.NewEnrollmentController(svc.Enrollments)
	paymentCtl := paymentController.NewPaymentController(svc.Payments)
	certCtl := certController.NewCertificateController(svc.Certificates)
	userCtl := userController.NewUserController(svc.Users)

	api := app.Group("/api")

	// ===================== AUTH =====================
	log.Info().Msg("[INFO] Setting up AuthRoutes...")
	authRoute.AuthRoutes(api, authCtl, requireAuth)
	oauthRoute.OAuthRoutes(api, oauthCtl, requireAuth, optionalAuth)

	// ===================== WEBHOOK (tanpa auth, dipercaya lewat signature) =====================
	paymentRoute.PaymentWebhookRoutes(api, paymentCtl, middlewares.WebhookRateLimiter())

	// ===================== PUBLIC =====================
	log.Info().Msg("[INFO] Setting up PUBLIC group...")
	public := api.Group("/public", optionalAuth)
	courseRoute.CoursePublicRoutes(public, courseCtl)
	certRoute.CertificatePublicRoutes(public, certCtl, middlewares.CertificateVerifyRateLimiter())

	// ===================== PRIVATE (USER) =====================
	log.Info().Msg("[INFO] Setting up PRIVATE group...")
	private := api.Group("/u", requireAuth)
	userRoute.UserSelfRoutes(private, userCtl)
	enrollmentRoute.EnrollmentUserRoutes(private, enrollmentCtl)
	paymentRoute.PaymentUserRoutes(private, paymentCtl)
	certRoute.CertificateUserRoutes(private, certCtl)

	// ===================== ADMIN (role guard per fitur) =====================
	log.Info().Msg("[INFO] Setting up ADMIN group...")
	admin := api.Group("/a", requireAuth)
	userRoute.UserAdminRoutes(admin, userCtl)
	courseRoute.CourseAdminRoutes(admin, courseCtl)
	certRoute.CertificateAdminRoutes(admin, certCtl)
	paymentRoute.PaymentAdminRoutes(admin, paymentCtl)
}
