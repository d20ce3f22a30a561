package handlers

import (
	"time"

	"easybuy/internal/events"
	"easybuy/internal/services"
	"easybuy/internal/token"
)

type Deps struct {
	Auth *services.AuthService
	// Users is read by RequireRole on every gated request.
	Users services.UserStore

	AuthHandler     *AuthHandler
	UserHandler     *UserHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	BookingHandler  *BookingHandler
	PaymentHandler  *PaymentHandler
	AdminHandler    *AdminHandler
}

type PaymentOptions struct {
	Processor services.Processor
	Currency  string
	Timeout   time.Duration
}

func NewDeps(st services.Stores, tokens *token.Issuer, pay PaymentOptions, bus *events.Bus) *Deps {
	authSvc := services.NewAuthService(st.Users, tokens)
	userSvc := services.NewUserService(st.Users)
	catalogSvc := services.NewCatalogService(st.Categories, st.Products, bus)
	bookingSvc := services.NewBookingService(st.Bookings, st.Products, bus)
	paymentSvc := services.NewPaymentService(st.Bookings, st.Payments, pay.Processor, bus, pay.Currency, pay.Timeout)
	reportSvc := services.NewReportService(st.Payments)

	return &Deps{
		Auth:            authSvc,
		Users:           st.Users,
		AuthHandler:     &AuthHandler{Auth: authSvc},
		UserHandler:     &UserHandler{Users: userSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		BookingHandler:  &BookingHandler{Bookings: bookingSvc},
		PaymentHandler:  &PaymentHandler{Payments: paymentSvc},
		AdminHandler:    &AdminHandler{Reports: reportSvc},
	}
}
