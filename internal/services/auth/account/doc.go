// Package account runs the password account lifecycle: registration,
// activation, login, logout and password reset or change.
package account
