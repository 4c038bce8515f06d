// Package logger provee el logger Zap del servicio con scoping por contexto.
//
// # Decisiones
//
//   - Singleton: una sola instancia, construida una vez con Init().
//   - Scoping: cada request lleva su propio logger con request_id, host,
//     store_id, sin construir un core nuevo.
//   - Entornos: "dev" usa consola con colores, "prod" usa JSON.
//
// # Uso
//
// En main (una vez):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "soma"})
//	defer logger.Sync()
//
// En services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Resolver.ResolveEmail"))
//	log.Info("store resolved", logger.StoreID(id))
package logger
