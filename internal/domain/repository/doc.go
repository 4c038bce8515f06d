// Package repository define las interfaces de repositorio de dominio.
//
// Son contratos de negocio independientes del document store subyacente
// (PostgreSQL, Firestore, memoria). Las implementaciones viven en
// internal/store y operan sobre store.DocumentStore.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Los errores de dominio están en errors.go
//   - Los tipos devueltos son los registros tipados de internal/domain/records
package repository
