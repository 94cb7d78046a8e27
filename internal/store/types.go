package store

// TaskRegistration is a persisted background task registration.
type TaskRegistration struct {
	TaskID             string
	MinIntervalSeconds int64
	StopOnTerminate    bool
	StartOnBoot        bool
	RegisteredAt       int64
}
