package user

import "time"

type Role string

const (
	RoleFarmer Role = "FARMER"
	RoleBuyer  Role = "BUYER"
	RoleAdmin  Role = "ADMIN"
)

type User struct {
	ID           int64
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
