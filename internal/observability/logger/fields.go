package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// DurationMs crea un campo con la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// =================================================================================
// NEGOCIO
// =================================================================================

// StoreID identifica el tenant (store) resuelto.
func StoreID(v string) zap.Field { return zap.String("store_id", v) }

// Host es el host de entrada usado para resolver el tenant.
func Host(v string) zap.Field { return zap.String("host", v) }

// Strategy es la estrategia de resolución que dio resultado.
func Strategy(v string) zap.Field { return zap.String("strategy", v) }

func WithdrawalID(v string) zap.Field { return zap.String("withdrawal_id", v) }

func Subject(v string) zap.Field { return zap.String("sub", v) }

// Email agrega el email enmascarado (j***@example.com). Nunca loguear el email crudo.
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// MaskEmail conserva el primer carácter del local-part y el dominio.
func MaskEmail(v string) string {
	at := strings.LastIndex(v, "@")
	if at <= 0 {
		if v == "" {
			return ""
		}
		return "***"
	}
	return v[:1] + "***" + v[at:]
}

// =================================================================================
// SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

// Layer: handler, service, repository.
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Collection(v string) zap.Field { return zap.String("collection", v) }

func DocID(v string) zap.Field { return zap.String("doc_id", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
