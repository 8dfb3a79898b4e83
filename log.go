package simplex

// Logger receives debug output of the model and of every pivot.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
