// Package tenant resuelve a qué store pertenece una señal de identidad.
//
// Dos entradas:
//   - ResolveEmail: email del usuario -> store id (relación 1:1 user/store).
//   - ResolveHost: host del request -> store id, probando subdominio de la
//     plataforma y después dominio custom.
//
// El resolver es de solo lectura y no cachea resultados: cada llamada va al
// document store. Las búsquedas idénticas en vuelo se comparten (singleflight).
package tenant
