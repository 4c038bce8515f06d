// Package records define los tipos de registro persistidos por colección y
// la frontera de validación al leerlos.
//
// Los documentos del store llegan como map[string]any. Nada de esa forma
// suelta sale de este paquete: cada lectura se decodifica a un tipo concreto
// y los documentos que no cumplen el contrato se rechazan con ErrMalformed.
package records
