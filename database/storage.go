package database

// Storage is the persistence surface the app is wired against
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	GetDB() interface{}
}
