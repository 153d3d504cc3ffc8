package model

import "time"

// User represents an application user record as stored in the `users` table.
// The password hash is bcrypt; the role is one of the constants defined in
// the auth package ("user" or "admin") and is immutable after registration.
// Handlers expose a trimmed response type instead of this struct so the hash
// never leaks into a JSON body.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name supplied at registration.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – "user" or "admin".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
