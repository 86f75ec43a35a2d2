package main

import (
	"io"
	"os"
	"time"

	cv2pdf "github.com/alnah/go-cv2pdf"
	"github.com/alnah/go-cv2pdf/internal/config"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, process environment, prompting and configuration.
type Environment struct {
	Now       func() time.Time
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	LookupEnv func(string) (string, bool)
	Environ   func() []string
	Prompter  Prompter
	Config    *config.Config // Loaded once per command, flags applied on top

	// ConverterOptions are appended to the options derived from
	// configuration, e.g. to inject a compiler in tests.
	ConverterOptions []cv2pdf.Option

	// dotenv holds variables read from a .env file. Process variables
	// take precedence.
	dotenv map[string]string
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:       time.Now,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
		Environ:   os.Environ,
		Prompter:  surveyPrompter{},
		Config:    config.DefaultConfig(),
	}
}

// lookup returns a variable from the process environment, falling back to
// the .env file.
func (e *Environment) lookup(key string) (string, bool) {
	if e.LookupEnv != nil {
		if v, ok := e.LookupEnv(key); ok {
			return v, true
		}
	}
	v, ok := e.dotenv[key]
	return v, ok
}
