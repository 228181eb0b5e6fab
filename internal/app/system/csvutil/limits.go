// internal/app/system/csvutil/limits.go
package csvutil

// MaxRows caps the rows written by one export.
const MaxRows = 20000
