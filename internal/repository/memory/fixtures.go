package memory

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/unisync-api/internal/models"
)

// FixtureAccount is a ready-made identity available when the API runs without a database.
type FixtureAccount struct {
	Email    string
	Password string
	FullName string
	Role     models.UserRole
	RoleID   string
}

// DefaultAccounts are the mock-mode identities, one per portal.
var DefaultAccounts = []FixtureAccount{
	{Email: "student@unisync.edu", Password: "Student123", FullName: "Demo Student", Role: models.RoleStudent, RoleID: "STU001"},
	{Email: "staff@unisync.edu", Password: "Staff1234", FullName: "Demo Staff", Role: models.RoleStaff, RoleID: "STF001"},
	{Email: "admin@unisync.edu", Password: "Admin1234", FullName: "Demo Admin", Role: models.RoleAdmin, RoleID: "ADM001"},
}

// Seed registers accounts and a welcome announcement authored by the first staff or admin account.
func Seed(ctx context.Context, users *UserStore, announcements *AnnouncementStore, accounts []FixtureAccount) error {
	var author *models.User
	for _, account := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash fixture password: %w", err)
		}
		user := &models.User{
			Email:        account.Email,
			PasswordHash: string(hash),
			FullName:     account.FullName,
			Role:         account.Role,
			Active:       true,
		}
		profile := &models.Profile{Role: account.Role}
		profile.SetRoleIdentifier(account.RoleID)
		if err := users.CreateWithProfile(ctx, user, profile); err != nil {
			return fmt.Errorf("seed %s: %w", account.Email, err)
		}
		if author == nil && account.Role != models.RoleStudent {
			author = user
		}
	}
	if author == nil || announcements == nil {
		return nil
	}
	return announcements.Add(ctx, &models.Announcement{
		Title:     "Welcome to UniSync",
		Content:   "Announcements, leave and on-duty requests are now handled online.",
		Category:  models.CategoryGeneral,
		CreatedBy: author.FullName,
		CreatorID: author.ID,
	})
}
