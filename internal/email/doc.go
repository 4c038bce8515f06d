// Package email envía los emails transaccionales del servicio.
//
// Hoy el único email es el link de confirmación de retiros. Dos drivers:
//   - smtp: go-mail contra el servidor configurado.
//   - log: escribe el mensaje en el logger (desarrollo).
package email
