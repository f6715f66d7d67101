// Package devlog provee un logger mínimo de cuatro niveles cuyo modo
// (desarrollo o producción) se decide una sola vez al construirlo.
//
// # Design Decisions
//
//   - Trace e Info solo escriben en modo desarrollo.
//   - Warn y Error escriben siempre.
//   - Los valores se reenvían al Sink tal cual: mismo orden, misma cantidad,
//     sin formateo ni conversión a string.
//   - Sin estado: no hay buffers, dedupe ni rate limiting.
//   - Las fallas del Sink no se recuperan: StreamSink hace panic con el error
//     de escritura y ZapSink ignora el nivel de zap (el único filtro es el modo).
//   - El modo se inyecta en New; dos loggers con modos distintos conviven
//     en el mismo proceso (tests).
//
// # Usage
//
//	log := devlog.New(cfg.IsDevelopment(), devlog.ZapSink(logger.L()))
//	log.Trace("loaded", 42)
//	log.Error("failed to sync", map[string]any{"code": 500})
//
// Los consumidores deben depender de la interfaz Logger, no de *Console, para
// poder envolver Warn/Error (por ejemplo un decorator que reporte a otro lado)
// sin tocar los call sites.
package devlog
