package domain

import (
	"time"
)

type Role string

const (
	RoleNurse      Role = "PERAWAT"
	RoleDoctor     Role = "DOKTER"
	RoleStaff      Role = "STAF"
	RoleSupervisor Role = "SUPERVISOR"
	RoleUnitHead   Role = "KEPALA_UNIT"
	RoleAdmin      Role = "ADMIN"
)

type User struct {
	ID             int64     `json:"id"`
	EmployeeID     string    `json:"employeeID"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	TelegramChatID string    `json:"telegramChatID"`
	Role           Role      `json:"role"`
	UnitCode       string    `json:"unitCode"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	Version        int32     `json:"-"`
}
