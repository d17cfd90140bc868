package service

// Service is a long-running component of the daemon. Start blocks
// until the service shuts down, so callers usually run it in its own
// goroutine. Stop must be safe to call once Start has returned.
type Service interface {
	Start() error
	Stop() error
}
