package logger

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellomail/internal/util"
)

// Field evita importar zap en los llamadores que arman listas de campos.
type Field = zap.Field

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// UserID crea un campo para el ID del usuario dueño de la conexión Gmail.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// Email crea un campo con la dirección enmascarada (a…@g….com).
func Email(v string) zap.Field { return zap.String("email", util.MaskEmail(v)) }

// Address crea un campo para la clave normalizada de un challenge OTP.
// Se prefiere sobre Email para no volcar direcciones en claro.
func Address(v string) zap.Field { return zap.String("address_key", v) }

// MessageID crea un campo para el id de mensaje devuelto por el provider.
func MessageID(v string) zap.Field { return zap.String("message_id", v) }

// TemplateID crea un campo para el id de un template de email.
func TemplateID(v string) zap.Field { return zap.String("template_id", v) }

// Attempts crea un campo para el contador de intentos de un challenge.
func Attempts(v int) zap.Field { return zap.Int("attempts", v) }

// ExpiresAt crea un campo para un vencimiento absoluto.
func ExpiresAt(v time.Time) zap.Field { return zap.Time("expires_at", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// Count crea un campo para un conteo.
func Count(v int) zap.Field { return zap.Int("count", v) }

// Key crea un campo genérico para una clave/path del store.
func Key(v string) zap.Field { return zap.String("key", v) }

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }

// String crea un campo string genérico.
func String(key, v string) zap.Field { return zap.String(key, v) }

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field { return zap.Int(key, v) }

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
