package constants

const (
	NotFoundPage  = "{\"message\":\"This endpoint doesn't exist!\",\"error\":true}"
	BadRequest    = "{\"message\":\"Your request is malformed!\",\"error\":true}"
	Unauthorized  = "{\"message\":\"You're not authorized to do this, did you forget the scheduler secret?\",\"error\":true}"
	InternalError = "{\"message\":\"Something went wrong on our end!\",\"error\":true}"
)
