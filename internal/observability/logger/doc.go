// Package logger construye el *zap.Logger del proceso.
//
// # Design Decisions
//
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//   - Singleton opcional: Init() una vez en main, L() en el resto.
//
// El logging de diagnóstico del sync pasa por devlog (que decide qué se
// silencia fuera de desarrollo); este paquete solo arma el backend zap.
//
// # Usage
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,   // "dev" o "prod"
//	    Level: cfg.Log.Level, // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
package logger
