package tableau

// Logger receives a debug line for every pivot. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
