package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/gleeworld/gleeworld/internal/module"
	modulePostgres "github.com/gleeworld/gleeworld/internal/module/postgres"
	"github.com/gleeworld/gleeworld/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		logger.Init(os.Getenv("APP_ENV"), cfg.Observability.Logging.Level)

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"gw_module_permissions", "gw_notifications", "gw_tasks", "gw_profiles", "gw_modules"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		seedModules(db)
		seedProfiles(db, cfg.Security.BCryptCost)
		seedGrants(db)

		fmt.Println("Seeding complete")
	},
}

func seedModules(db *gorm.DB) {
	repo := modulePostgres.NewModuleRepository(db)
	for _, m := range module.Defaults() {
		if err := repo.Upsert(m); err != nil {
			log.Fatalf("failed to seed module %s: %v", m.Name, err)
		}
	}
	fmt.Println("Seeded default modules")
}

func seedProfiles(db *gorm.DB, bcryptCost int) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcryptCost)

	profiles := []struct {
		UserID       string
		Email        string
		FullName     string
		Role         string
		VoicePart    string
		IsSuperAdmin bool
		IsExecBoard  bool
		ExecPosition string
	}{
		{"u-director", "director@gleeworld.org", "Dana Director", "super-admin", "", true, false, ""},
		{"u-president", "president@gleeworld.org", "Priya President", "executive", "soprano", false, true, "president"},
		{"u-treasurer", "treasurer@gleeworld.org", "Tess Treasurer", "executive", "alto", false, true, "treasurer"},
		{"u-leader", "leader@gleeworld.org", "Lena Leader", "section-leader", "soprano", false, false, ""},
		{"u-member", "member@gleeworld.org", "Mia Member", "member", "alto", false, false, ""},
	}

	for _, p := range profiles {
		var exists int
		if err := db.Raw("SELECT 1 FROM gw_profiles WHERE email = ?", p.Email).Row().Scan(&exists); err == nil {
			continue
		}

		err := db.Exec(`INSERT INTO gw_profiles
			(user_id, email, full_name, password_hash, role, voice_part, is_super_admin, is_exec_board, exec_board_role, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), true, now(), now())`,
			p.UserID, p.Email, p.FullName, string(hash), p.Role, p.VoicePart,
			p.IsSuperAdmin, p.IsExecBoard, p.ExecPosition).Error
		if err != nil {
			log.Fatalf("failed to seed profile %s: %v", p.Email, err)
		}
		fmt.Println("Seeded profile:", p.Email)
	}
}

func seedGrants(db *gorm.DB) {
	grants := []struct {
		SubjectKind string
		SubjectID   string
		Module      string
		Kind        string
	}{
		{"role", "member", "announcements", "view"},
		{"role", "member", "calendar", "view"},
		{"role", "member", "member-directory", "view"},
		{"role", "member", "handbook", "view"},
		{"role", "member", "tasks", "view"},
		{"role", "section-leader", "attendance", "view"},
		{"role", "section-leader", "attendance", "manage"},
		{"role", "executive", "budgets", "view"},
		{"role", "executive", "contracts", "view"},
		{"user", "u-treasurer", "budgets", "view"},
		{"user", "u-treasurer", "budgets", "manage"},
	}

	for _, g := range grants {
		err := db.Exec(`INSERT INTO gw_module_permissions
			(subject_kind, subject_id, module_name, permission_kind, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, true, now(), now())
			ON CONFLICT (subject_kind, subject_id, module_name, permission_kind)
			DO UPDATE SET is_active = true, updated_at = now()`,
			g.SubjectKind, g.SubjectID, g.Module, g.Kind).Error
		if err != nil {
			log.Fatalf("failed to seed grant %s/%s/%s: %v", g.SubjectID, g.Module, g.Kind, err)
		}
	}
	fmt.Println("Seeded role and user grants")
}
