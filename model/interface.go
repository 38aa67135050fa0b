package model

import "context"

// Runner launches an external program and waits for it to exit.
//
// A returned error means the program could not be launched. A program that
// ran and exited non-zero is reported through Result.ExitCode with a nil error.
type Runner interface {
	Run(ctx context.Context, invocation Invocation) (Result, error)
}

type Invocation struct {
	Args []string

	// Env is added to the inherited process environment, overriding duplicates.
	Env map[string]string

	// CaptureOutput collects stdout into Result.Stdout instead of passing it through.
	CaptureOutput bool
}

type Result struct {
	ExitCode int
	Stdout   []byte
}
