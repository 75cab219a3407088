package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
	"github.com/rsud-anugerah/shift-swap/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var firstNames = []string{
	"Budi", "Siti", "Agus", "Dewi", "Rina", "Andi", "Fitri", "Joko",
	"Putri", "Hendra", "Lestari", "Rudi", "Wulan", "Bayu", "Indah",
	"Eko", "Maya", "Dimas", "Ayu", "Rizki",
}

var lastNames = []string{
	"Santoso", "Wijaya", "Saputra", "Utami", "Pratama", "Hidayat",
	"Kusuma", "Rahayu", "Nugroho", "Anggraini", "Setiawan", "Maulana",
}

var units = []string{
	domain.UnitICU,
	domain.UnitNICU,
	domain.UnitEmergency,
	domain.UnitInpatient,
	domain.UnitOutpatient,
	domain.UnitLaboratory,
	domain.UnitPharmacy,
}

var staffRoles = []domain.Role{
	domain.RoleNurse,
	domain.RoleDoctor,
	domain.RoleStaff,
}

var shiftWindows = [][2]string{
	{"07:00:00", "14:00:00"},
	{"14:00:00", "21:00:00"},
	{"21:00:00", "07:00:00"},
}

func randomName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

func usernameFromName(fullName string, sequence int) string {
	return fmt.Sprintf("%s%d", strings.ToLower(strings.ReplaceAll(fullName, " ", ".")), sequence)
}

// SeedUsers inserts n staff members plus one supervisor and one unit head
// per unit, so every approval path has someone who can walk it.
func SeedUsers(ctx context.Context, repo *repository.Repository, n int, password string) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("could not hash seed password", "error", err)
		return
	}

	sequence := rand.Intn(9000)

	insert := func(role domain.Role, unit string) {
		sequence++
		fullName := randomName()
		username := usernameFromName(fullName, sequence)
		user := &domain.User{
			EmployeeID:   fmt.Sprintf("RSUD%05d", sequence),
			Username:     username,
			PasswordHash: string(passwordHash),
			FullName:     fullName,
			Email:        username + "@rsud-anugerah.example",
			Role:         role,
			UnitCode:     unit,
		}
		if err := repo.CreateUser(ctx, user); err != nil {
			slog.Error("could not insert seed user", "username", username, "error", err)
			return
		}
		slog.Info("seed user inserted", "id", user.ID, "username", username, "role", role, "unit", unit)
	}

	for i := 0; i < n; i++ {
		insert(staffRoles[rand.Intn(len(staffRoles))], units[rand.Intn(len(units))])
	}
	for _, unit := range units {
		insert(domain.RoleSupervisor, unit)
		insert(domain.RoleUnitHead, unit)
	}
}

// SeedShifts spreads n future shifts over the active staff.
func SeedShifts(ctx context.Context, repo *repository.Repository, n int) {
	users, err := repo.GetAllUsers(ctx)
	if err != nil {
		slog.Error("could not list users", "error", err)
		return
	}

	staff := make([]*domain.User, 0, len(users))
	for _, user := range users {
		switch user.Role {
		case domain.RoleNurse, domain.RoleDoctor, domain.RoleStaff:
			if user.IsActive {
				staff = append(staff, user)
			}
		}
	}
	if len(staff) == 0 {
		slog.Error("no staff to assign shifts to, seed users first")
		return
	}

	for i := 0; i < n; i++ {
		owner := staff[rand.Intn(len(staff))]
		window := shiftWindows[rand.Intn(len(shiftWindows))]
		date := time.Now().AddDate(0, 0, 1+rand.Intn(30)).Truncate(24 * time.Hour)

		shift := &domain.Shift{
			OwnerID:   owner.ID,
			UnitCode:  owner.UnitCode,
			Date:      date,
			StartTime: window[0],
			EndTime:   window[1],
		}
		if err := repo.CreateShift(ctx, shift); err != nil {
			slog.Error("could not insert seed shift", "ownerID", owner.ID, "error", err)
			return
		}
		slog.Info("seed shift inserted", "id", shift.ID, "ownerID", owner.ID, "unit", shift.UnitCode, "date", date.Format("2006-01-02"))
	}
}
