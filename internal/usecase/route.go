package usecase

// Route names the client screen a response sends the user to.
type Route string

const (
	RouteHome         Route = "home"
	RouteOnboarding   Route = "onboarding"
	RouteGenderSelect Route = "gender-select"
)
