package user

import (
	"errors"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	EmployeeID   string    `json:"employeeId"`
	Department   string    `json:"department"`
	CreatedAt    time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("user not found")
var ErrEmailTaken = errors.New("email already in use")

type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Name       string `json:"name" binding:"required,min=2,max=120"`
	Role       string `json:"role" binding:"omitempty,oneof=admin employee"`
	EmployeeID string `json:"employeeId" binding:"required,max=40"`
	Department string `json:"department" binding:"omitempty,max=80"`
}
