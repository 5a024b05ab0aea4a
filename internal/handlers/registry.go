package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	ChildHandler        *ChildHandler
	ActivityHandler     *ActivityHandler
	BookingHandler      *BookingHandler
	SubscriptionHandler *SubscriptionHandler
	AdminHandler        *AdminHandler
}
