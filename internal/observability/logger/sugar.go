package logger

import "go.uber.org/zap"

// S retorna el SugaredLogger del singleton.
// Lo usan los comandos del CLI, donde el formato printf-style es más cómodo.
func S() *zap.SugaredLogger {
	return L().Sugar()
}
