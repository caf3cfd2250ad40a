// Package user defines the auth user model shared by password and passkey
// sign-in.
//
// Usernames and emails are normalized here before they are persisted, so
// uniqueness checks in storage compare canonical values.
package user
