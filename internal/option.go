package internal

import "github.com/starford/pictor/internal/imageservice"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	decide imageservice.DecisionFunc
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithDecision sets the callback consulted before trashing an image whose
// last link was removed while the tracker runs in prompt mode.
func WithDecision(fn imageservice.DecisionFunc) Option {
	return func(a *application) {
		a.decide = fn
	}
}
