// Package aggregates defines the write boundaries of the Secret Santa domain.
//
// Contracts here carry no persistence detail. Implementations own the
// transaction and must return *Error so callers can branch on Code.
package aggregates
